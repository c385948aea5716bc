package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the knowledge collections from the documentation sources",
}

var ingestPagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Fetch the documentation text dump and rebuild the page chunks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(func(ctx context.Context, p ingestRunner) error {
			return p.Pages(ctx)
		})
	},
}

var ingestDocstringsCmd = &cobra.Command{
	Use:   "docstrings",
	Short: "Fetch the command docstrings JSON and rebuild the docstring chunks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(func(ctx context.Context, p ingestRunner) error {
			return p.Docstrings(ctx)
		})
	},
}

var ingestPageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Refresh the chunks of a single documentation page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(func(ctx context.Context, p ingestRunner) error {
			return p.RefreshPage(ctx, args[0])
		})
	},
}

var ingestAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Rebuild both knowledge collections",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(func(ctx context.Context, p ingestRunner) error {
			if err := p.Pages(ctx); err != nil {
				return err
			}
			return p.Docstrings(ctx)
		})
	},
}

func init() {
	ingestCmd.AddCommand(ingestPagesCmd, ingestDocstringsCmd, ingestPageCmd, ingestAllCmd)
	rootCmd.AddCommand(ingestCmd)
}

// ingestRunner is what the subcommands call on the pipeline.
type ingestRunner interface {
	Pages(ctx context.Context) error
	Docstrings(ctx context.Context) error
	RefreshPage(ctx context.Context, pageURL string) error
}

func runIngest(run func(ctx context.Context, p ingestRunner) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	pipeline, err := a.newPipeline()
	if err != nil {
		return fmt.Errorf("creating ingest pipeline: %w", err)
	}
	if err := run(ctx, pipeline); err != nil {
		return err
	}
	fmt.Println("Ingest complete.")
	return nil
}
