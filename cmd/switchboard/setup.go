package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/internal/config"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/provider/openai"
	"github.com/casualjim/switchboard/store/sqlite"
	"github.com/casualjim/switchboard/tracing"
	"github.com/casualjim/switchboard/tracing/natsexport"
	"github.com/casualjim/switchboard/tracing/otelexport"
	"github.com/nats-io/nats.go"
)

func newModel(cfg *config.Config) (api.Model, error) {
	if err := cfg.ValidateLLM(); err != nil {
		return nil, err
	}
	return openai.Model(cfg.LLM.Model, openai.Endpoint(cfg.LLM.BaseURL, cfg.LLM.APIKey)...), nil
}

func openDB(cfg *config.Config) (*sqlite.DB, error) {
	db, err := sqlite.Open(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// setupTracing installs the trace processors enabled by cfg on the default
// provider, followed by extra. The returned function flushes and closes them.
func setupTracing(ctx context.Context, cfg *config.Config, extra ...tracing.Processor) (func(), error) {
	processors := []tracing.Processor{tracing.NewLogProcessor(slog.Default())}
	var closers []func()

	if cfg.OTel.Endpoint != "" {
		exp, err := otelexport.Init(ctx, otelexport.Config{
			Endpoint: cfg.OTel.Endpoint,
			URLPath:  cfg.OTel.URLPath,
			APIKey:   cfg.OTel.APIKey,
			Insecure: cfg.OTel.Insecure,
		})
		if err != nil {
			return nil, err
		}
		processors = append(processors, exp)
	}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("switchboard"))
		if err != nil {
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		processors = append(processors, natsexport.New(nc, cfg.NATS.SubjectPrefix))
		closers = append(closers, nc.Close)
	}

	processors = append(processors, extra...)
	tracing.SetProcessors(processors...)

	return func() {
		sctx := context.WithoutCancel(ctx)
		if err := tracing.Default().Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("failed to shut down tracing", slogx.LoggerName("switchboard"), slogx.Error(err))
		}
		for _, c := range closers {
			c()
		}
	}, nil
}
