package main

import (
	"context"
	"fmt"

	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/di"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the server and list its databases",
	Long: `Check connects with MONGODB_URI, pings the primary and prints the
names of all databases. It needs no application credentials.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithoutPassword()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	container := di.NewContainer(cfg, appLogger)
	defer container.Close()
	if err := container.InitializeDatabase(ctx); err != nil {
		return err
	}
	if err := container.InitializeBootstrap(); err != nil {
		return err
	}

	conn, err := container.GetBootstrapModule().GetUsecase().Check(ctx)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return writeConnectivity(cmd.OutOrStdout(), conn)
}
