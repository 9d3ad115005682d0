package main

import (
	"os"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "cyberrag",
		Short:        "Question answering over OWASP, MITRE ATT&CK and the Thai web security standard",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			// only serve owns stdout, the others print results there
			if cmd.Name() == "serve" {
				logger_i.Init(cfg.Log.Level, cfg.Log.JSON)
			} else {
				logger_i.InitWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.JSON)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newAskCmd(opts),
		newMCPCmd(opts),
	)
	return cmd
}
