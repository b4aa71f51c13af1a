// Command docchat answers questions about a document corpus. It indexes the
// corpus, chats in a terminal REPL and serves the chat over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "docchat",
		Short:         "Conversational Q&A over a document corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (YAML or JSON); DOCCHAT_* env vars override it")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging to stderr")

	root.AddCommand(newAskCmd(a), newServeCmd(a), newIndexCmd(a))
	return root
}
