// Package tprl creates Temporal clients that log through slog.
package tprl

import (
	"fmt"
	"log/slog"

	"github.com/casualjim/switchboard/pkg/slogx"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

type Options struct {
	// Address is host:port of the frontend service, client.DefaultHostPort when empty.
	Address   string
	Namespace string
}

// NewClient returns a client that connects on first use.
func NewClient(opts Options) (client.Client, error) {
	lg := slog.Default().With(slogx.LoggerName("switchboard.temporal"))

	hostPort := opts.Address
	if hostPort == "" {
		hostPort = client.DefaultHostPort
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = client.DefaultNamespace
	}

	cl, err := client.NewLazyClient(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
		Logger:    log.NewStructuredLogger(lg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	return cl, nil
}
