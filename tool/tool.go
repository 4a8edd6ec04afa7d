package tool

import (
	"fmt"

	"github.com/casualjim/switchboard/pkg/reflectx"
	"github.com/casualjim/switchboard/pkg/stdx"
	"github.com/fogfish/opts"
)

// Definition describes a function that can be called by a model.
type Definition struct {
	Name        string
	Description string
	// Parameters maps the positional names (param0, param1, ...) of the exposed
	// function parameters to the names the model sees.
	Parameters map[string]string
	// Optional lists the model facing names of parameters that may be omitted.
	Optional []string
	Function any
}

// Option configures a Definition.
type Option = opts.Option[Definition]

// Must is New but panics on error.
func Must(f any, options ...Option) Definition {
	return stdx.Must1(New(f, options...))
}

// New creates a tool definition for f. The name defaults to the function name.
func New(f any, options ...Option) (Definition, error) {
	if !reflectx.IsFunction(f) {
		return Definition{}, fmt.Errorf("provided value is not a function")
	}

	var def Definition
	if err := opts.Apply(&def, options); err != nil {
		return Definition{}, err
	}
	if def.Name == "" {
		def.Name = reflectx.FunctionName(f)
	}

	def.Function = f
	return def, nil
}

var (
	Name        = opts.ForName[Definition, string]("Name")
	Description = opts.ForName[Definition, string]("Description")
)

// Parameters names the exposed function parameters in order.
func Parameters(parameters ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Parameters = make(map[string]string, len(parameters))
		for i, p := range parameters {
			o.Parameters[fmt.Sprintf("param%d", i)] = p
		}
		return nil
	})
}

// Optional marks parameters that the model may leave out. Omitted parameters
// receive their zero value.
func Optional(names ...string) Option {
	return opts.Type[Definition](func(o *Definition) error {
		o.Optional = append(o.Optional, names...)
		return nil
	})
}
