package api

import "github.com/casualjim/switchboard/provider"

// Model names a chat model and the provider that serves it.
type Model interface {
	Name() string
	Provider() provider.Provider
}
