/*
Package openai implements provider.Provider on top of the OpenAI chat completions API.

Any endpoint that speaks the same protocol can be used by pointing the client at it, for
example Gemini's OpenAI compatible endpoint:

	model := openai.Model("gemini-2.0-flash",
		openai.Endpoint("https://generativelanguage.googleapis.com/v1beta/openai/", os.Getenv("GEMINI_API_KEY"))...,
	)

Models are cached by name; the provider behind a model is created on first use. HTTP calls go
through an OpenTelemetry instrumented transport, so they show up as client spans when a tracer
provider is installed.

Developer messages from the thread are sent as system messages, since not every compatible
endpoint accepts the developer role.
*/
package openai
