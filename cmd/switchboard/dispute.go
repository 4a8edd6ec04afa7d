package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/casualjim/switchboard/internal/dispute"
	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/payments/stripe"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/pkg/tprl"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

var (
	paymentIntentID string
	viaTemporal     bool
)

var disputeCmd = &cobra.Command{
	Use:   "dispute",
	Short: "Triage payment disputes",
}

var disputeRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Triage the dispute of a payment intent, creating a disputed test payment when none is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := stripe.New(cfg.Stripe.SecretKey)
		if err != nil {
			return err
		}

		piID := paymentIntentID
		if piID == "" {
			pi, err := client.CreatePaymentIntent(ctx, dispute.DemoPaymentIntent)
			if err != nil {
				return fmt.Errorf("creating payment intent: %w", err)
			}
			slog.Info("created disputed payment", slogx.LoggerName("dispute"), slog.String("payment_intent", pi.ID))
			piID = pi.ID
		}

		var (
			summary *payments.DisputeSummary
			output  string
		)
		if viaTemporal {
			tc, err := tprl.NewClient(tprl.Options{Address: cfg.Temporal.Address, Namespace: cfg.Temporal.Namespace})
			if err != nil {
				return err
			}
			defer tc.Close()
			out, err := dispute.Execute(ctx, tc, cfg.Temporal.TaskQueue, piID)
			if err != nil {
				return err
			}
			summary, output = out.Summary, out.Output
		} else {
			model, err := newModel(cfg)
			if err != nil {
				return err
			}
			shutdown, err := setupTracing(ctx, cfg)
			if err != nil {
				return err
			}
			defer shutdown()

			summary, output, err = dispute.NewProcessor(client, model).ProcessDispute(ctx, piID)
			if err != nil {
				return err
			}
		}

		printDispute(cmd.OutOrStdout(), summary, output)
		return nil
	},
}

var disputeWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker for the dispute workflow",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		client, err := stripe.New(cfg.Stripe.SecretKey)
		if err != nil {
			return err
		}
		model, err := newModel(cfg)
		if err != nil {
			return err
		}
		shutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		tc, err := tprl.NewClient(tprl.Options{Address: cfg.Temporal.Address, Namespace: cfg.Temporal.Namespace})
		if err != nil {
			return err
		}
		defer tc.Close()

		w := dispute.NewWorker(tc, cfg.Temporal.TaskQueue, dispute.NewActivities(dispute.NewProcessor(client, model)))
		return w.Run(interruptOn(ctx))
	},
}

func init() {
	disputeRunCmd.Flags().StringVar(&paymentIntentID, "payment-intent", "", "payment intent to triage")
	disputeRunCmd.Flags().BoolVar(&viaTemporal, "temporal", false, "run as a Temporal workflow on a dispute worker")
	disputeCmd.AddCommand(disputeRunCmd, disputeWorkerCmd)
}

func printDispute(w io.Writer, summary *payments.DisputeSummary, output string) {
	if summary == nil {
		fmt.Fprintln(w, "No dispute found.")
		return
	}
	fmt.Fprint(w, "Relevant Data: ")
	_, _ = pp.Fprintln(w, summary)
	fmt.Fprintln(w, "Triage Result:", output)
}

// interruptOn adapts ctx to the channel worker.Run waits on.
func interruptOn(ctx context.Context) <-chan any {
	ch := make(chan any)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
