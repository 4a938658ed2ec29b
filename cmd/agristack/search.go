package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agristack/internal/search/coordinator"
	"agristack/internal/search/models"
)

type searchOptions struct {
	pace   time.Duration
	settle time.Duration
}

func newSearchCmd(c *cli) *cobra.Command {
	var opts searchOptions
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run the debounced global search over lines read from stdin",
		Long: `Search reads one line per keystroke from stdin. Each line is the whole
contents of the search box at that moment; an empty line clears it.

Lines are fed through the same debounce window as the console, so only
the search for the last term of a burst is committed and printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd, opts)
		},
	}
	cmd.Flags().DurationVar(&opts.pace, "pace", 0, "Delay between lines, to simulate typing")
	cmd.Flags().DurationVar(&opts.settle, "settle", 10*time.Second, "How long to wait for the last search after stdin ends")
	return cmd
}

func (c *cli) runSearch(cmd *cobra.Command, opts searchOptions) error {
	p, err := c.principal()
	if err != nil {
		return err
	}
	a, err := c.open(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	settled := make(chan coordinator.View, 1)
	onChange := func(v coordinator.View) {
		if v.State == coordinator.StateCommitted {
			printResults(out, v)
		}
		if v.State == coordinator.StateCommitted || v.State == coordinator.StateIdle {
			select {
			case settled <- v:
			default:
			}
		}
	}

	search := func(ctx context.Context, term string) ([]models.SearchResult, error) {
		return a.Search.Search(ctx, p, term)
	}
	co := coordinator.New(cmd.Context(), search,
		coordinator.WithDelay(c.cfg.Search.Debounce),
		coordinator.WithLogger(c.log),
		coordinator.WithOnChange(onChange),
	)
	defer co.Close()
	co.Focus()

	sc := bufio.NewScanner(cmd.InOrStdin())
	for sc.Scan() {
		co.Input(sc.Text())
		if opts.pace > 0 {
			time.Sleep(opts.pace)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}

	return waitSettled(cmd.Context(), co, settled, opts.settle)
}

// waitSettled blocks until the coordinator is neither pending nor in flight.
func waitSettled(ctx context.Context, co *coordinator.Coordinator, settled <-chan coordinator.View, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		switch co.View().State {
		case coordinator.StatePending, coordinator.StateInFlight:
		default:
			return nil
		}
		select {
		case <-settled:
		case <-deadline.C:
			return fmt.Errorf("search did not settle within %s", timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printResults(w io.Writer, v coordinator.View) {
	fmt.Fprintf(w, "%q: %d results (token %d)\n", v.ResultsTerm, len(v.Results), v.ResultsToken)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range v.Results {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.Type, r.Title, r.Subtitle, r.ID)
	}
	tw.Flush()
}
