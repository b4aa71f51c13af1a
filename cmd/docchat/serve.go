package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/docchat/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		clean bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP and Connect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			orch, idx, err := a.orchestrator(ctx, clean)
			if err != nil {
				return err
			}
			defer idx.Close()

			library, closeStore, err := a.pipeline(ctx, idx)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := server.New(orch, a.cfg.Server,
				server.WithMetrics(a.metrics.Handler()),
				server.WithObserver(a.observer()),
				server.WithLibrary(library),
			)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Start(ctx)
			})
			g.Go(func() error {
				<-ctx.Done()
				return srv.Shutdown(context.WithoutCancel(ctx))
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&clean, "clean", false, "rebuild the index before serving")
	return cmd
}
