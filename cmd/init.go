package main

import (
	"context"
	"fmt"

	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/di"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	initMode string
	initJSON bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the application user and collections",
	Long: `Init runs the bootstrap once: connect, select the target database,
create the application user, then create each collection in order.

In ensure mode (the default) entities that already exist are kept and the
run still succeeds. In strict mode any existing entity aborts the run.
On success the line "Database initialized: <db>" is printed to stdout.`,
	RunE: runInit,
}

func init() {
	bindInitFlags(initCmd.Flags())
}

func bindInitFlags(flags *pflag.FlagSet) {
	flags.StringVar(&initMode, "mode", "", "bootstrap mode (ensure, strict); overrides BOOTSTRAP_MODE")
	flags.BoolVar(&initJSON, "json", false, "print the run report as JSON")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if initMode != "" {
		if cfg, err = cfg.WithMode(initMode); err != nil {
			return fmt.Errorf("invalid --mode: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	container := di.NewContainer(cfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Warnf("Failed to close container: %v", err)
		}
	}()
	if err := container.Initialize(ctx); err != nil {
		return err
	}

	module := container.GetBootstrapModule()
	report, runErr := module.GetUsecase().Run(ctx, module.Plan())
	if report != nil {
		if err := writeReport(cmd.OutOrStdout(), report, initJSON); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("bootstrap failed: %w", runErr)
	}
	return nil
}
