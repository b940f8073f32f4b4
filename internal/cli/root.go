// Package cli implements the rankview command line: listing the published
// selections, inspecting the facets of one dataset and printing its
// filtered, sorted entries.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JonMunkholm/rankview/internal/application"
	"github.com/JonMunkholm/rankview/internal/config"
	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/JonMunkholm/rankview/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Deps lets tests swap the service factory.
type Deps struct {
	OpenService func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.Service, error)
	Stdout      io.Writer
	Stderr      io.Writer
}

func defaultDeps() Deps {
	return Deps{
		OpenService: func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*core.Service, error) {
			return application.NewService(ctx, cfg, nil, logger)
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	deps := defaultDeps()
	if err := newRootCmd(deps).Execute(); err != nil {
		if core.IsUserFacing(err) {
			fmt.Fprintf(deps.Stderr, "rankview: %s\n  %v\n", core.FormatUserError(err), err)
		} else {
			fmt.Fprintf(deps.Stderr, "rankview: %v\n", err)
		}
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	debug  bool
	driver string
	root   string
	format string
}

func newRootCmd(deps Deps) *cobra.Command {
	var g globals

	cmd := &cobra.Command{
		Use:           "rankview",
		Short:         "Browse opening and closing ranks by year and round",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "log load progress to stderr")
	cmd.PersistentFlags().StringVar(&g.driver, "driver", "", "source driver (overrides SOURCE_DRIVER)")
	cmd.PersistentFlags().StringVar(&g.root, "root", "", "directory of <year>/data-<year>-<round>.db files (overrides SOURCE_ROOT)")
	cmd.PersistentFlags().StringVarP(&g.format, "format", "o", "table", "output format: table|json|yaml")

	cmd.AddCommand(
		selectionsCmd(&g),
		facetsCmd(&g, deps),
		listCmd(&g, deps),
	)
	return cmd
}

// setup loads .env and the environment, applies flag overrides and
// returns a logger writing to stderr.
func (g *globals) setup(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	// Unlike the server, existing variables win over .env here.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if g.driver != "" {
		cfg.Source.Driver = g.driver
	}
	if g.root != "" {
		cfg.Source.Root = g.root
	}

	level := "warn"
	if g.debug {
		level = "debug"
	}
	return cfg, logging.New(level, cfg.Logging.Format, stderr), nil
}

// open loads sel into a fresh service.
func (g *globals) open(ctx context.Context, deps Deps, sel core.Selection) (*core.Service, core.Status, error) {
	// Reject bad selections before touching config or the source.
	if err := sel.Validate(); err != nil {
		return nil, core.Status{}, err
	}

	cfg, logger, err := g.setup(deps.Stderr)
	if err != nil {
		return nil, core.Status{}, err
	}
	svc, err := deps.OpenService(ctx, cfg, logger)
	if err != nil {
		return nil, core.Status{}, err
	}
	st, err := svc.Load(ctx, sel)
	if err != nil {
		_ = svc.Close()
		return nil, core.Status{}, err
	}
	return svc, st, nil
}

// selectionFlags adds --year and --round to cmd.
func selectionFlags(cmd *cobra.Command, year, round *int) {
	cmd.Flags().IntVarP(year, "year", "y", int(core.LastYear), "counselling year")
	cmd.Flags().IntVarP(round, "round", "r", 1, "counselling round")
}

func selectionOf(year, round int) core.Selection {
	if year < 0 || year > 0xFFFF || round < 0 || round > 0xFF {
		return core.Selection{}
	}
	return core.Selection{Year: uint16(year), Round: uint8(round)}
}
