package main

import (
	"github.com/spf13/cobra"

	"github.com/votermatch/internal/web"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the matching API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			return web.NewServer(a.cfg.Server, engine, a.logger).Start(cmd.Context())
		},
	}
}
