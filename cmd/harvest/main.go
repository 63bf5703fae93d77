package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/image-harvest/internal/app"
	"github.com/image-harvest/internal/logger"
	"github.com/image-harvest/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

type Dependencies struct {
	Config *app.Config
	Pool   *pgxpool.Pool
}

func main() {
	config := &app.Config{
		DatabaseUrl: os.Getenv("DATABASE_URL"),
		OutputRoot:  os.Getenv("OUTPUT_ROOT"),
	}

	dependencies := &Dependencies{
		Config: config,
	}

	var rootCmd = &cobra.Command{
		Use:           "harvest",
		Short:         "Download, filter and normalize image sets for a subject.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(os.Stderr, config.Verbose)

			if dependencies.Pool == nil && config.DatabaseUrl != "" {
				pool, err := store.Open(cmd.Context(), config.DatabaseUrl)
				if err != nil {
					return err
				}
				if err := store.Migrate(cmd.Context(), pool); err != nil {
					pool.Close()
					return err
				}
				dependencies.Pool = pool
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if dependencies.Pool != nil {
				dependencies.Pool.Close()
				dependencies.Pool = nil
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&config.DatabaseUrl, "database-url", config.DatabaseUrl, "Database URL; enables the catalog")
	rootCmd.PersistentFlags().StringVar(&config.OutputRoot, "output-root", config.OutputRoot, "Directory that holds one folder per subject")
	rootCmd.PersistentFlags().StringVar(&config.ConfigPath, "config", "", "Job file (default ./harvest.yaml, then the XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(cmdRun(dependencies))
	rootCmd.AddCommand(cmdNormalize(dependencies))
	rootCmd.AddCommand(cmdFinalize(dependencies))
	rootCmd.AddCommand(cmdJobs(dependencies))
	rootCmd.AddCommand(cmdCatalog(dependencies))

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
