package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	exportmodels "agristack/internal/export/models"
	records "agristack/internal/records/models"
	"agristack/internal/report"
	dErrors "agristack/pkg/domain-errors"
)

type exportOptions struct {
	format string
	from   string
	to     string
	out    string
}

func newExportCmd(c *cli) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export <farmers|inspections|outreach>",
		Short: "Write a report for a date range",
		Long: `Export writes a CSV, PDF or XLSX report of one record collection.

--from and --to are inclusive calendar dates (YYYY-MM-DD); either may be
omitted. Nothing is written when the range holds no records.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(report.FormatCSV), "Output format (csv, pdf, xlsx)")
	cmd.Flags().StringVar(&opts.from, "from", "", "First creation date to include")
	cmd.Flags().StringVar(&opts.to, "to", "", "Last creation date to include")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Output directory, or - for stdout")
	return cmd
}

func (c *cli) runExport(cmd *cobra.Command, kind string, opts exportOptions) error {
	req := exportmodels.Request{Type: report.Type(kind), Format: report.Format(opts.format)}
	var err error
	if req.From, err = parseOptionalDate("from", opts.from); err != nil {
		return err
	}
	if req.To, err = parseOptionalDate("to", opts.to); err != nil {
		return err
	}

	p, err := c.principal()
	if err != nil {
		return err
	}
	a, err := c.open(cmd.Context())
	if err != nil {
		return err
	}
	artifact, err := a.Exports.Export(cmd.Context(), p, req)
	if err != nil {
		return err
	}

	if opts.out == "-" {
		_, err = cmd.OutOrStdout().Write(artifact.Body)
		return err
	}
	path := filepath.Join(opts.out, artifact.Filename)
	if err := os.WriteFile(path, artifact.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", artifact.Rows, path)
	return nil
}

func parseOptionalDate(name, s string) (*records.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := records.ParseDate(s)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, name+" must be a YYYY-MM-DD date")
	}
	return &d, nil
}
