package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/docchat/kernel"
	"github.com/tailored-agentic-units/docchat/server"
	"github.com/tailored-agentic-units/docchat/session"
)

// chat is the conversation surface the REPL drives, local or remote.
type chat interface {
	Ask(ctx context.Context, question, sessionID string) (string, error)
	Reset(ctx context.Context, sessionID string) error
}

type localChat struct {
	orch *kernel.Orchestrator
}

func (c localChat) Ask(ctx context.Context, question, sessionID string) (string, error) {
	return c.orch.Run(ctx, question, sessionID)
}

func (c localChat) Reset(ctx context.Context, sessionID string) error {
	c.orch.ResetMemory(ctx, sessionID)
	return nil
}

type remoteChat struct {
	client *server.Client
}

func (c remoteChat) Ask(ctx context.Context, question, sessionID string) (string, error) {
	res, err := c.client.Ask(ctx, question, sessionID)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

func (c remoteChat) Reset(ctx context.Context, sessionID string) error {
	return c.client.Reset(ctx, sessionID)
}

func newAskCmd(a *app) *cobra.Command {
	var (
		sessionID string
		remote    string
		clean     bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask one question, or start an interactive chat without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var c chat
			if remote != "" {
				c = remoteChat{client: server.NewClient(nil, remote)}
			} else {
				orch, idx, err := a.orchestrator(ctx, clean)
				if err != nil {
					return err
				}
				defer idx.Close()
				c = localChat{orch: orch}
			}

			if len(args) > 0 {
				answer, err := c.Ask(ctx, strings.Join(args, " "), sessionID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), answer)
				return nil
			}

			return newREPL(c, sessionID).Run(ctx, os.Stdin, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", session.DefaultID, "conversation session id")
	cmd.Flags().StringVar(&remote, "remote", "", "base URL of a running docchat server")
	cmd.Flags().BoolVar(&clean, "clean", false, "rebuild the index before chatting")
	return cmd
}
