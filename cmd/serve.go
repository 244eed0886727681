package main

import (
	"context"
	"fmt"
	"time"

	"setdb-init/internal/bootstrap/config"
	"setdb-init/internal/di"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
)

var serveSkipBootstrap bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bootstrap and expose a status API",
	Long: `Serve runs the bootstrap once in the background and then serves:

  GET  /health            database and Redis connectivity
  GET  /ready             200 once a bootstrap run succeeded
  GET  /bootstrap/report  report of the last run
  GET  /bootstrap/verify  live comparison against the plan
  POST /bootstrap/run     run the bootstrap again`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveSkipBootstrap, "no-bootstrap", false, "do not run the bootstrap at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	ctx := cmd.Context()

	initCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	container := di.NewContainer(cfg, appLogger)
	defer func() {
		if err := container.Close(); err != nil {
			appLogger.Warnf("Failed to close container: %v", err)
		}
	}()
	if err := container.Initialize(initCtx); err != nil {
		return err
	}
	module := container.GetBootstrapModule()

	app := fiber.New(fiber.Config{
		AppName:               "setdb-init",
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          cfg.Timeout + 5*time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			appLogger.Errorf("HTTP Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Internal Server Error",
			})
		},
	})
	app.Use(recover.New())
	module.RegisterRoutes(app)

	if !serveSkipBootstrap {
		go func() {
			runCtx, runCancel := context.WithTimeout(ctx, cfg.Timeout)
			defer runCancel()
			report, err := module.GetUsecase().Run(runCtx, module.Plan())
			if err != nil {
				appLogger.Errorf("Startup bootstrap failed: %v", err)
				return
			}
			appLogger.Info(report.ConfirmationMessage())
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Infof("Status API listening on %s", cfg.Server.Addr())
		serverErr <- app.Listen(cfg.Server.Addr())
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("status API: %w", err)
		}
		return nil
	case <-ctx.Done():
		appLogger.Info("Shutting down status API")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			appLogger.Errorf("Server forced to shutdown: %v", err)
		}
		return nil
	}
}
