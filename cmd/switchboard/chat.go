package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/casualjim/switchboard/internal/chat"
	"github.com/casualjim/switchboard/internal/guarded"
	"github.com/casualjim/switchboard/internal/support"
	"github.com/casualjim/switchboard/runner"
	"github.com/spf13/cobra"
)

var (
	chatConsole bool
	chatAddr    string
	resumeID    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Serve a chat demo over HTTP or on the console",
}

var supportCmd = &cobra.Command{
	Use:   "support",
	Short: "Customer support with billing and refund hand-offs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		model, err := newModel(cfg)
		if err != nil {
			return err
		}
		return serveChat(ctx, support.New(model, runner.WithTracingDisabled(true)), nil)
	},
}

var guardedCmd = &cobra.Command{
	Use:   "guarded",
	Short: "Support chat with math homework guardrails and saved transcripts",
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

		shutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		var params map[string]string
		if resumeID != "" {
			params = map[string]string{guarded.ResumeParam: resumeID}
		}
		return serveChat(ctx, guarded.New(guarded.NewAgent(model, model), db), params)
	},
}

func init() {
	chatCmd.PersistentFlags().BoolVar(&chatConsole, "console", false, "chat on the terminal instead of serving HTTP")
	chatCmd.PersistentFlags().StringVar(&chatAddr, "addr", "", "HTTP listen address (default from config)")
	guardedCmd.Flags().StringVar(&resumeID, "session", "", "resume a saved conversation (console only)")
	chatCmd.AddCommand(supportCmd, guardedCmd)
}

func serveChat(ctx context.Context, app chat.App, params map[string]string) error {
	if chatConsole {
		return chat.NewConsole(app, os.Stdin, os.Stdout).Run(ctx, params)
	}
	addr := chatAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return chat.NewServer(app).ListenAndServe(ctx, addr)
}
