package main

import (
	"context"
	"fmt"
	"os"

	"github.com/image-harvest/internal/app"
	"github.com/image-harvest/internal/report"
	"github.com/image-harvest/internal/service"
	"github.com/spf13/cobra"
)

type stage func(s *service.HarvestService, ctx context.Context, job *app.Job) (*report.Summary, error)

func cmdRun(dependencies *Dependencies) *cobra.Command {
	return pipelineCommand(dependencies, &cobra.Command{
		Use:   "run",
		Short: "Search, normalize and finalize images for a subject.",
		Example: `  harvest run --subject "Micah Parsons" --variant "" --variant "cowboys" --target 30
  harvest run --job parsons --report parsons.md`,
	}, (*service.HarvestService).Run)
}

func cmdNormalize(dependencies *Dependencies) *cobra.Command {
	return pipelineCommand(dependencies, &cobra.Command{
		Use:   "normalize",
		Short: "Normalize and finalize the candidates already in a job directory.",
	}, (*service.HarvestService).NormalizeOnly)
}

func cmdFinalize(dependencies *Dependencies) *cobra.Command {
	return pipelineCommand(dependencies, &cobra.Command{
		Use:   "finalize",
		Short: "Rename pending outputs and delete stray files in a job directory.",
	}, (*service.HarvestService).FinalizeOnly)
}

func pipelineCommand(dependencies *Dependencies, cmd *cobra.Command, run stage) *cobra.Command {
	var jobName string
	overrides := bindJobFlags(cmd)

	cmd.Flags().StringVar(&jobName, "job", "", "Job name from the job file")
	cmd.Flags().StringVar(&dependencies.Config.ReportPath, "report", "", "Write a Markdown run report to this file")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		job, err := loadJob(dependencies.Config, jobName)
		if err != nil {
			return err
		}
		overrides.apply(cmd, job)

		opts := []service.Option{service.WithProgress(os.Stderr)}
		if dependencies.Pool != nil {
			opts = append(opts, service.WithCatalog(service.NewCatalog(dependencies.Pool)))
		}
		s := service.NewHarvestService(dependencies.Config, opts...)

		summary, err := run(s, cmd.Context(), job)
		if summary != nil && dependencies.Config.ReportPath != "" {
			if reportErr := writeReport(dependencies.Config.ReportPath, summary); reportErr != nil {
				return reportErr
			}
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), summary.Short())
		return nil
	}
	return cmd
}

// loadJob returns the named job from the job file, or a default job when
// no name is given.
func loadJob(config *app.Config, name string) (*app.Job, error) {
	if name == "" {
		return app.NewJob(), nil
	}

	path := app.FindFile(config.ConfigPath)
	if path == "" {
		return nil, app.ErrConfigNotFound
	}
	file, err := app.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if config.OutputRoot == "" {
		config.OutputRoot = file.OutputRoot
	}
	return file.Job(name)
}

func writeReport(path string, summary *report.Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := report.WriteMarkdown(file, summary); err != nil {
		_ = file.Close()
		return fmt.Errorf("report: %w", err)
	}
	return file.Close()
}
