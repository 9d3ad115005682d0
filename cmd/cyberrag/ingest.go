package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/akolanti/cyberrag/internal/bootstrap"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/rag/ingest"
	"github.com/spf13/cobra"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var only []string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the knowledge base from the configured documents",
		Long: `Rebuild the knowledge base from the configured documents.

The chromem backend loads its files when a process starts, so a serve process
already running keeps answering from the old index until it is restarted.
Use POST /api/ingest to rebuild inside a running server, or the qdrant backend
to share one index between processes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, opts.cfg.Ingest.JobTimeout)
			defer cancel()

			app, err := bootstrap.NewIndexer(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := runIngest(ctx, app.Pipeline, only, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&only, "only", nil, "document ids to ingest, all configured documents when empty")
	return cmd
}

func runIngest(ctx context.Context, runner ingest.Runner, only []string, progress io.Writer) (jobModel.IngestReport, error) {
	return runner.Run(ctx, only, func(step jobModel.InternalStatus) {
		fmt.Fprintf(progress, "-> %s\n", step)
	})
}

func printReport(w io.Writer, report jobModel.IngestReport) {
	fmt.Fprintf(w, "Collection:      %s\n", report.Collection)
	fmt.Fprintf(w, "Embedding model: %s (dimension %d)\n", report.EmbeddingModel, report.Dimension)
	fmt.Fprintf(w, "Total chunks:    %d\n", report.TotalChunks)
	fmt.Fprintf(w, "Duration:        %s\n\n", report.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOCUMENT\tTYPE\tSEGMENTS\tCHUNKS")
	for _, d := range report.Documents {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", d.DocumentId, d.Type, d.Segments, d.Chunks)
	}
	_ = tw.Flush()
}
