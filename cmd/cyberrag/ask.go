package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/akolanti/cyberrag/internal/bootstrap"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag"
	"github.com/spf13/cobra"
)

type asker interface {
	Ask(ctx context.Context, q commonModels.Query) (commonModels.Answer, error)
	ResetSession(ctx context.Context, sessionId string) error
}

type askOptions struct {
	k         int
	language  string
	sessionId string
	debug     bool
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	ao := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question, or start an interactive session when none is given",
		Long: `Ask one question, or start an interactive session when none is given.

--session continues a conversation kept by another process, which needs
history.backend: redis. With the memory backend sessions end with the process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkSessionBackend(ao, opts.cfg.History.Backend); err != nil {
				return err
			}
			app, err := bootstrap.New(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) > 0 {
				_, err := askOnce(cmd.Context(), app.Chat, ao, strings.Join(args, " "), cmd.OutOrStdout())
				return err
			}
			return repl(cmd.Context(), app.Chat, ao, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&ao.k, "top-k", "k", 0, "number of passages to retrieve, 0 for retrieval.default_k")
	cmd.Flags().StringVar(&ao.language, "lang", "auto", "answer language: auto, en or th")
	cmd.Flags().StringVar(&ao.sessionId, "session", "", "continue a session stored in redis (history.backend: redis)")
	cmd.Flags().BoolVar(&ao.debug, "debug", false, "print retrieval debug info")
	return cmd
}

// checkSessionBackend rejects --session when history lives in this process only,
// where no earlier session can exist.
func checkSessionBackend(ao *askOptions, backend string) error {
	if ao.sessionId != "" && backend != config.HistoryBackendRedis {
		return fmt.Errorf("--session needs history.backend %q, configured backend is %q", config.HistoryBackendRedis, backend)
	}
	return nil
}

func askOnce(ctx context.Context, a asker, ao *askOptions, question string, out io.Writer) (string, error) {
	answer, err := a.Ask(ctx, commonModels.Query{
		SessionId: ao.sessionId,
		Text:      question,
		K:         ao.k,
		Language:  commonModels.ParseLanguage(ao.language),
	})
	if err != nil {
		return "", err
	}

	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\n%s\n", rag.SourcesText(answer.Sources))
	}
	if ao.debug {
		fmt.Fprintf(out, "\n%s\n", answer.Debug)
	}
	return answer.SessionId, nil
}

// repl keeps one session across questions. "/reset" clears it, "exit" or EOF ends.
func repl(ctx context.Context, a asker, ao *askOptions, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Ask about OWASP, MITRE ATT&CK or the Thai web security standard. /reset clears the conversation, exit quits.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			if ao.sessionId != "" {
				if err := a.ResetSession(ctx, ao.sessionId); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
				}
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		sessionId, err := askOnce(ctx, a, ao, line, out)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		ao.sessionId = sessionId
		fmt.Fprintln(out)
	}
}
