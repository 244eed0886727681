package main

import (
	"context"
	"errors"
	"fmt"

	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/di"

	"github.com/spf13/cobra"
)

var errNotSatisfied = errors.New("database does not match the bootstrap plan")

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the live database with the bootstrap plan",
	Long: `Status reads the target database and reports whether the application
user holds its role and every planned collection exists. It never writes.
The command exits non-zero when the plan is not satisfied.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the verification as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	// the password is not needed to inspect the server
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

	module := container.GetBootstrapModule()
	v, err := module.GetUsecase().Verify(ctx, module.Plan())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	if err := writeVerification(cmd.OutOrStdout(), v, statusJSON); err != nil {
		return err
	}
	if !v.Satisfied() {
		return errNotSatisfied
	}
	return nil
}
