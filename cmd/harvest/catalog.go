package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/image-harvest/internal/app"
	"github.com/image-harvest/internal/service"
	"github.com/image-harvest/internal/store"
	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("catalog: --database-url or DATABASE_URL is required")

func cmdJobs(dependencies *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List the jobs in the job file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.FindFile(dependencies.Config.ConfigPath)
			if path == "" {
				return app.ErrConfigNotFound
			}
			file, err := app.LoadFile(path)
			if err != nil {
				return err
			}
			for _, job := range file.Jobs {
				subject := job.Subject
				if subject == "" {
					subject = fmt.Sprintf("%d phrases", len(job.Phrases))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\ttarget=%d\n", job.Name, subject, job.Policy, job.Target)
			}
			return nil
		},
	}
}

func cmdCatalog(dependencies *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Query catalogued images",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if dependencies.Pool == nil {
				return errNoDatabase
			}
			return nil
		},
	}

	var prefix string
	cmdList := &cobra.Command{
		Use:   "list",
		Short: "List catalogued images",
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := store.NewImageStore(dependencies.Pool).ListByPrefix(cmd.Context(), prefix)
			if err != nil {
				return err
			}
			for _, image := range images {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%dx%d\t%016x\t%s\n",
					image.ID, image.Prefix, image.Width, image.Height, image.Hash, image.Path)
			}
			return nil
		},
	}
	cmdList.Flags().StringVar(&prefix, "prefix", "", "Only list images with this prefix")

	var file string
	var limit int
	cmdSimilar := &cobra.Command{
		Use:   "similar",
		Short: "Find catalogued images that look like a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			s := service.NewSimilarService(store.NewImageStore(dependencies.Pool))
			results, err := s.Similar(cmd.Context(), f, limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f\t%d\t%s\t%s\n", r.Score, r.Bits, r.Prefix, r.Path)
			}
			return nil
		},
	}
	cmdSimilar.Flags().StringVar(&file, "file", "", "Image to compare (required)")
	cmdSimilar.Flags().IntVar(&limit, "limit", service.DefaultSimilarLimit, "Number of matches")
	_ = cmdSimilar.MarkFlagRequired("file")

	cmd.AddCommand(cmdList, cmdSimilar)
	return cmd
}
