package openai

import (
	"net/http"
	"sync"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var modelRegistry = haxmap.New[string, api.Model]()

func GPT4oMini(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelGPT4oMini, opts...)
}

func GPT4o(opts ...option.RequestOption) api.Model {
	return Model(openai.ChatModelGPT4o, opts...)
}

// Model returns the cached model for name, creating it with opts on first use.
// Options passed for an already cached name are ignored.
func Model(name string, opts ...option.RequestOption) api.Model {
	m, _ := modelRegistry.GetOrCompute(name, func() api.Model {
		return &model{
			name: name,
			opts: opts,
		}
	})
	return m
}

// Forget drops a cached model so the next Model call recreates it.
func Forget(name string) {
	modelRegistry.Del(name)
}

// Endpoint returns the request options for an OpenAI compatible endpoint.
// An empty baseURL keeps the default OpenAI endpoint.
func Endpoint(baseURL, apiKey string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

var _ api.Model = (*model)(nil)

type model struct {
	name string
	opts []option.RequestOption

	prov     provider.Provider
	provOnce sync.Once
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Provider() provider.Provider {
	m.provOnce.Do(func() {
		m.prov = New(m.opts...)
	})
	return m.prov
}
