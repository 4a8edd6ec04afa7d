// Package stripe implements payments.Client on the Stripe API.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/casualjim/switchboard/payments"
	"github.com/casualjim/switchboard/pkg/slogx"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ payments.Client = (*Client)(nil)

type Client struct {
	api *client.API
}

type config struct {
	url        string
	httpClient *http.Client
}

type Option func(*config)

// WithURL points the client at another API base URL.
func WithURL(url string) Option {
	return func(c *config) { c.url = url }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// New creates a client authenticated with the secret key.
func New(secretKey string, options ...Option) (*Client, error) {
	if secretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not set")
	}
	cfg := config{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, o := range options {
		o(&cfg)
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        cfg.httpClient,
		LeveledLogger:     slogLogger{log: slog.Default().With(slogx.LoggerName("stripe"))},
		MaxNetworkRetries: stripego.Int64(0),
		EnableTelemetry:   stripego.Bool(false),
	}
	if cfg.url != "" {
		backendCfg.URL = stripego.String(cfg.url)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendCfg)

	return &Client{api: client.New(secretKey, &stripego.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})}, nil
}

func (c *Client) CreatePaymentIntent(ctx context.Context, p payments.CreatePaymentIntentParams) (*payments.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(p.Amount),
		Currency: stripego.String(p.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	if p.PaymentMethod != "" {
		params.PaymentMethod = stripego.String(p.PaymentMethod)
	}
	if p.Confirm {
		params.Confirm = stripego.Bool(true)
	}
	if p.OffSession {
		params.OffSession = stripego.Bool(true)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrap("creating payment intent", err)
	}
	return toPaymentIntent(pi), nil
}

func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*payments.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, wrap("retrieving payment intent "+id, err)
	}
	return toPaymentIntent(pi), nil
}

func (c *Client) ListDisputes(ctx context.Context, paymentIntentID string) ([]payments.Dispute, error) {
	params := &stripego.DisputeListParams{PaymentIntent: stripego.String(paymentIntentID)}
	params.Context = ctx

	var out []payments.Dispute
	iter := c.api.Disputes.List(params)
	for iter.Next() {
		out = append(out, toDispute(iter.Dispute()))
	}
	if err := iter.Err(); err != nil {
		return nil, wrap("listing disputes for "+paymentIntentID, err)
	}
	return out, nil
}

func (c *Client) CloseDispute(ctx context.Context, id string) (*payments.Dispute, error) {
	params := &stripego.DisputeParams{}
	params.Context = ctx
	d, err := c.api.Disputes.Close(id, params)
	if err != nil {
		return nil, wrap("closing dispute "+id, err)
	}
	out := toDispute(d)
	return &out, nil
}

func wrap(op string, err error) error {
	var serr *stripego.Error
	if errors.As(err, &serr) && serr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %s", op, payments.ErrNotFound, serr.Msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toPaymentIntent(pi *stripego.PaymentIntent) *payments.PaymentIntent {
	out := &payments.PaymentIntent{
		ID:          pi.ID,
		Amount:      pi.Amount,
		Currency:    string(pi.Currency),
		Status:      string(pi.Status),
		Description: pi.Description,
		Metadata:    pi.Metadata,
		Created:     pi.Created,
	}
	if pi.LatestCharge != nil {
		out.LatestCharge = pi.LatestCharge.ID
	}
	return out
}

func toDispute(d *stripego.Dispute) payments.Dispute {
	out := payments.Dispute{
		ID:       d.ID,
		Amount:   d.Amount,
		Currency: string(d.Currency),
		Reason:   string(d.Reason),
		Status:   string(d.Status),
	}
	if d.EvidenceDetails != nil {
		out.DueBy = d.EvidenceDetails.DueBy
	}
	if d.PaymentIntent != nil {
		out.PaymentIntent = d.PaymentIntent.ID
	}
	if d.PaymentMethodDetails != nil && d.PaymentMethodDetails.Card != nil {
		out.CardBrand = d.PaymentMethodDetails.Card.Brand
	}
	return out
}

// slogLogger routes stripe-go log lines to slog.
type slogLogger struct {
	log *slog.Logger
}

func (l slogLogger) Debugf(format string, v ...any) { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l slogLogger) Infof(format string, v ...any)  { l.log.Debug(fmt.Sprintf(format, v...)) }
func (l slogLogger) Warnf(format string, v ...any)  { l.log.Warn(fmt.Sprintf(format, v...)) }
func (l slogLogger) Errorf(format string, v ...any) { l.log.Error(fmt.Sprintf(format, v...)) }
