package tool

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"github.com/casualjim/switchboard/pkg/reflectx"
	"github.com/casualjim/switchboard/types"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var functionReflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// ToNameAndSchema returns the tool name and the JSON schema of its parameters.
func (td Definition) ToNameAndSchema() (string, *jsonschema.Schema) {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: orderedmap.New[string, *jsonschema.Schema](),
	}

	var required []string
	for _, p := range td.exposedParams() {
		propSchema := functionReflector.ReflectFromType(p.typ)
		propSchema.Version = ""
		schema.Properties.Set(p.name, propSchema)
		if !slices.Contains(td.Optional, p.name) {
			required = append(required, p.name)
		}
	}
	if len(required) > 0 {
		schema.Required = required
	}

	return td.Name, schema
}

type param struct {
	index int // position in the function signature
	name  string
	typ   reflect.Type
}

func (td Definition) exposedParams() []param {
	typ := reflect.TypeOf(td.Function)
	if typ == nil || typ.Kind() != reflect.Func {
		return nil
	}

	var params []param
	for i := range typ.NumIn() {
		pt := typ.In(i)
		if isInjected(pt) {
			continue
		}
		name := fmt.Sprintf("param%d", len(params))
		if p, ok := td.Parameters[name]; ok {
			name = p
		}
		params = append(params, param{index: i, name: name, typ: pt})
	}
	return params
}

func isInjected(t reflect.Type) bool {
	return reflectx.IsRefinedType[types.ContextVars](t) || reflectx.IsRefinedType[context.Context](t)
}
