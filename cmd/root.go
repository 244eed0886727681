package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"setdb-init/internal/shared/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	logLevel string

	// appLogger is built by PersistentPreRunE and shared with all subcommands.
	appLogger logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "setdb-init",
	Short: "Provision the set game database on MongoDB",
	Long: `setdb-init prepares a MongoDB server for the set game backend.
It creates the application user with its role on the target database and
the collections the backend expects, then prints a confirmation line.

Running without a subcommand is the same as "setdb-init init".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInit,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		// stdout is reserved for command output
		appLogger = logger.NewLoggerTo(os.Stderr, logLevel)
		logger.SetDefault(appLogger)
		return nil
	}

	bindInitFlags(rootCmd.Flags())
	rootCmd.AddCommand(initCmd, checkCmd, statusCmd, serveCmd)
}

// Execute is the entry point called by main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment. A missing file is only an
// error when it was named explicitly. Variables already set take precedence.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}
