package tool

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/casualjim/switchboard/pkg/reflectx"
	"github.com/casualjim/switchboard/types"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

var errorType = reflect.TypeFor[error]()

// Result is the rendered output of a tool call.
type Result struct {
	Value string
	// ContextVars is set when the function returned context variables.
	ContextVars types.ContextVars
}

// Call decodes the JSON arguments, invokes the function and renders its result.
func (td Definition) Call(ctx context.Context, arguments string, cv types.ContextVars) (res Result, err error) {
	if !reflectx.IsFunction(td.Function) {
		return Result{}, fmt.Errorf("tool %s has no function", td.Name)
	}
	if arguments == "" {
		arguments = "{}"
	}
	if !gjson.Valid(arguments) {
		return Result{}, fmt.Errorf("tool %s: invalid arguments %q", td.Name, arguments)
	}
	args := gjson.Parse(arguments)

	fn := reflect.ValueOf(td.Function)
	ftyp := fn.Type()
	if ftyp.IsVariadic() {
		return Result{}, fmt.Errorf("tool %s: variadic functions are not supported", td.Name)
	}

	callArgs := make([]reflect.Value, ftyp.NumIn())
	for i := range ftyp.NumIn() {
		pt := ftyp.In(i)
		switch {
		case reflectx.IsRefinedType[types.ContextVars](pt):
			callArgs[i] = reflect.ValueOf(cv)
			if cv == nil {
				callArgs[i] = reflect.Zero(pt)
			}
		case reflectx.IsRefinedType[context.Context](pt):
			callArgs[i] = reflect.ValueOf(ctx)
		}
	}
	for _, p := range td.exposedParams() {
		v, err := convertArg(args.Get(p.name), p.typ)
		if err != nil {
			return Result{}, fmt.Errorf("tool %s: argument %s: %w", td.Name, p.name, err)
		}
		callArgs[p.index] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", td.Name, r)
		}
	}()
	return renderResults(fn.Call(callArgs))
}

func convertArg(raw gjson.Result, typ reflect.Type) (reflect.Value, error) {
	if !raw.Exists() || raw.Type == gjson.Null {
		return reflect.Zero(typ), nil
	}

	switch typ.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw.String()).Convert(typ), nil
	case reflect.Bool:
		if raw.Type == gjson.String {
			b, err := strconv.ParseBool(raw.Str)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(b).Convert(typ), nil
		}
		return reflect.ValueOf(raw.Bool()).Convert(typ), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := reflect.New(typ).Elem()
		v.SetInt(raw.Int())
		return v, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := reflect.New(typ).Elem()
		v.SetUint(raw.Uint())
		return v, nil
	case reflect.Float32, reflect.Float64:
		v := reflect.New(typ).Elem()
		v.SetFloat(raw.Float())
		return v, nil
	}

	ptr := reflect.New(typ)
	if err := json.Unmarshal([]byte(raw.Raw), ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func renderResults(results []reflect.Value) (Result, error) {
	if len(results) == 0 {
		return Result{}, nil
	}

	last := results[len(results)-1]
	if last.Type().Implements(errorType) && last.Type().Kind() == reflect.Interface {
		if !last.IsNil() {
			return Result{}, last.Interface().(error)
		}
		if len(results) == 1 {
			return Result{}, nil
		}
	}

	return render(results[0])
}

func render(res reflect.Value) (Result, error) {
	if !res.IsValid() {
		return Result{}, nil
	}
	switch res.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
		if res.IsNil() {
			if reflectx.IsRefinedType[types.ContextVars](res.Type()) {
				return Result{}, nil
			}
			return Result{Value: "null"}, nil
		}
	}

	switch v := res.Interface().(type) {
	case types.ContextVars:
		return Result{ContextVars: v}, nil
	case error:
		return Result{}, v
	case string:
		return Result{Value: v}, nil
	case time.Time:
		return Result{Value: v.Format(time.RFC3339)}, nil
	case encoding.TextMarshaler:
		b, err := v.MarshalText()
		if err != nil {
			return Result{}, errors.Join(errors.New("marshalling tool result"), err)
		}
		return Result{Value: string(b)}, nil
	case fmt.Stringer:
		return Result{Value: v.String()}, nil
	}

	switch res.Kind() {
	case reflect.String:
		return Result{Value: res.String()}, nil
	case reflect.Bool:
		return Result{Value: strconv.FormatBool(res.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Result{Value: strconv.FormatInt(res.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Result{Value: strconv.FormatUint(res.Uint(), 10)}, nil
	case reflect.Float32:
		return Result{Value: strconv.FormatFloat(res.Float(), 'f', -1, 32)}, nil
	case reflect.Float64:
		return Result{Value: strconv.FormatFloat(res.Float(), 'f', -1, 64)}, nil
	}

	b, err := json.Marshal(res.Interface())
	if err != nil {
		return Result{}, fmt.Errorf("marshalling tool result: %w", err)
	}
	return Result{Value: string(b)}, nil
}
