package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	records "agristack/internal/records/models"
)

// fixtures is the layout of a seed file.
type fixtures struct {
	Farmers     []records.RegisterFarmerRequest   `yaml:"farmers"`
	Inspections []records.RecordInspectionRequest `yaml:"inspections"`
	Outreach    []records.LogOutreachRequest      `yaml:"outreach"`
}

func (f fixtures) total() int { return len(f.Farmers) + len(f.Inspections) + len(f.Outreach) }

func newSeedCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load farmers, inspections and outreach visits from a YAML file",
		Long: `Seed registers every record in the file through the records service, so
validation, registration ids and audit events apply as they do in the
console. Use - to read the file from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSeed(cmd, args[0])
		},
	}
}

func (c *cli) runSeed(cmd *cobra.Command, path string) error {
	fx, err := readFixtures(cmd.InOrStdin(), path)
	if err != nil {
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

	ctx := cmd.Context()
	for i := range fx.Farmers {
		f, err := a.Records.RegisterFarmer(ctx, p, &fx.Farmers[i])
		if err != nil {
			return fmt.Errorf("farmers[%d]: %w", i, err)
		}
		c.log.Debug("farmer seeded", "registration_id", f.RegistrationID)
	}
	for i := range fx.Inspections {
		if _, err := a.Records.RecordInspection(ctx, p, &fx.Inspections[i]); err != nil {
			return fmt.Errorf("inspections[%d]: %w", i, err)
		}
	}
	for i := range fx.Outreach {
		if _, err := a.Records.LogOutreachVisit(ctx, p, &fx.Outreach[i]); err != nil {
			return fmt.Errorf("outreach[%d]: %w", i, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d farmers, %d inspections, %d outreach visits\n",
		len(fx.Farmers), len(fx.Inspections), len(fx.Outreach))
	return nil
}

func readFixtures(stdin io.Reader, path string) (fixtures, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fixtures{}, err
		}
		defer f.Close()
		r = f
	}

	var fx fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return fixtures{}, fmt.Errorf("parse fixtures: %w", err)
	}
	if fx.total() == 0 {
		return fixtures{}, errors.New("fixtures file holds no records")
	}
	return fx, nil
}
