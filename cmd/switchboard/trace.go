package main

import (
	"os/signal"
	"syscall"

	"github.com/casualjim/switchboard/internal/tracedemo"
	"github.com/casualjim/switchboard/tracing/storeexport"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Run a two step workflow under one trace and store its traces and spans",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		model, err := newModel(cfg)
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		shutdown, err := setupTracing(ctx, cfg, storeexport.New(db))
		if err != nil {
			return err
		}
		defer shutdown()

		_, err = tracedemo.Run(ctx, cmd.OutOrStdout(), tracedemo.NewAgent(model))
		return err
	},
}
