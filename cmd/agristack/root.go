package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"agristack/internal/app"
	"agristack/internal/platform/config"
	"agristack/internal/platform/logger"
	"agristack/pkg/domain"
)

// cli carries the streams and the lazily opened app shared by every
// subcommand of one process.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	envFile  string
	logLevel string
	operator string
	role     string

	cfg config.Server
	log *slog.Logger
	app *app.App
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{stdin: stdin, stdout: stdout, stderr: stderr}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "agristack",
		Short:         "Operator tools for the agristack console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.configure()
		},
	}
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Optional .env file read before the environment")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.operator, "operator", "", "Operator id recorded in audit events (default: random)")
	root.PersistentFlags().StringVar(&c.role, "role", string(domain.RoleAdmin), "Operator role (viewer, inspector, admin)")

	root.AddCommand(newExportCmd(c))
	root.AddCommand(newSearchCmd(c))
	root.AddCommand(newSeedCmd(c))
	root.AddCommand(newTokenCmd(c))
	return root
}

func (c *cli) configure() {
	c.cfg = config.Load(c.envFile)
	c.log = logger.NewWithWriter(c.stderr, c.logLevel, "text")
}

// open connects to the configured backends once per process.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := app.New(ctx, c.cfg, c.log, prometheus.NewRegistry())
	if err != nil {
		return nil, err
	}
	if c.cfg.DatabaseURL == "" {
		c.log.Warn("DATABASE_URL not set; records live in memory for this command only")
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

// principal is the identity the CLI acts as.
func (c *cli) principal() (domain.Principal, error) {
	id := domain.OperatorID(uuid.New())
	if c.operator != "" {
		parsed, err := domain.ParseOperatorID(c.operator)
		if err != nil {
			return domain.Anonymous, err
		}
		id = parsed
	}
	return domain.Principal{OperatorID: id, Name: "cli", Role: domain.ParseRole(c.role)}, nil
}
