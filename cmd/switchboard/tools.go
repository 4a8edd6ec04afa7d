package main

import (
	"os/signal"
	"syscall"

	"github.com/casualjim/switchboard/internal/tooldemo"
	"github.com/casualjim/switchboard/runner"
	"github.com/spf13/cobra"
)

var toolsPrompt string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Stream a run of an assistant with weather and student finder tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		model, err := newModel(cfg)
		if err != nil {
			return err
		}
		_, err = tooldemo.Run(ctx, cmd.OutOrStdout(), tooldemo.NewAgent(model), toolsPrompt, runner.WithTracingDisabled(true))
		return err
	},
}

func init() {
	toolsCmd.Flags().StringVar(&toolsPrompt, "prompt", tooldemo.DefaultPrompt, "what to ask the assistant")
}
