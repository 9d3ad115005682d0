package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/cyberrag/internal/bootstrap"
	"github.com/akolanti/cyberrag/internal/mcpServer"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search_standards and ask_standards as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return mcpServer.New(app.Chat).Run(ctx)
		},
	}
}
