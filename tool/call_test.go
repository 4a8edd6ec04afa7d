package tool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casualjim/switchboard/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

type ctxKey struct{}

func TestDefinition_Call(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		def       Definition
		arguments string
		want      string
		wantErr   string
	}{
		{
			name:      "string result",
			def:       Must(func(location, unit string) string { return location + " " + unit }, Parameters("location", "unit")),
			arguments: `{"location":"Karachi","unit":"F"}`,
			want:      "Karachi F",
		},
		{
			name:      "missing optional argument uses zero value",
			def:       Must(func(location, unit string) string { return location + "|" + unit }, Parameters("location", "unit"), Optional("unit")),
			arguments: `{"location":"Lahore"}`,
			want:      "Lahore|",
		},
		{
			name:      "integer result",
			def:       Must(func(a, b int) int { return a + b }, Parameters("a", "b")),
			arguments: `{"a":2,"b":3}`,
			want:      "5",
		},
		{
			name:      "numeric strings are accepted for numbers",
			def:       Must(func(roll int) int { return roll * 2 }, Parameters("roll")),
			arguments: `{"roll":"21"}`,
			want:      "42",
		},
		{
			name:      "numbers are accepted for strings",
			def:       Must(func(roll string) string { return "roll " + roll }, Parameters("roll")),
			arguments: `{"roll":1}`,
			want:      "roll 1",
		},
		{
			name:      "float result",
			def:       Must(func(f float64) float64 { return f / 2 }, Parameters("f")),
			arguments: `{"f":5}`,
			want:      "2.5",
		},
		{
			name:      "bool result",
			def:       Must(func(b bool) bool { return !b }, Parameters("b")),
			arguments: `{"b":false}`,
			want:      "true",
		},
		{
			name:      "struct argument and result",
			def:       Must(func(o order) order { o.Status = "shipped"; return o }, Parameters("order")),
			arguments: `{"order":{"id":1234}}`,
			want:      `{"id":1234,"status":"shipped"}`,
		},
		{
			name:      "time result",
			def:       Must(func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }),
			arguments: `{}`,
			want:      "2024-01-02T03:04:05Z",
		},
		{
			name:      "value and nil error",
			def:       Must(func(id string) (string, error) { return "found " + id, nil }, Parameters("id")),
			arguments: `{"id":"9101"}`,
			want:      "found 9101",
		},
		{
			name:      "error result",
			def:       Must(func(id string) (string, error) { return "", errors.New("boom") }, Parameters("id")),
			arguments: `{"id":"x"}`,
			wantErr:   "boom",
		},
		{
			name:      "empty arguments",
			def:       Must(func() string { return "ok" }),
			arguments: "",
			want:      "ok",
		},
		{
			name:      "invalid arguments",
			def:       Must(func() string { return "ok" }, Name("noop")),
			arguments: `{"a":`,
			wantErr:   "tool noop: invalid arguments",
		},
		{
			name:      "panics become errors",
			def:       Must(func() string { panic("kaboom") }, Name("bad")),
			arguments: `{}`,
			wantErr:   "tool bad panicked: kaboom",
		},
		{
			name:      "no results",
			def:       Must(func() {}),
			arguments: `{}`,
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.def.Call(ctx, tt.arguments, nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestDefinition_CallInjection(t *testing.T) {
	t.Run("context and context vars are injected", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), ctxKey{}, "from-ctx")
		def := Must(func(ctx context.Context, cv types.ContextVars, name string) string {
			return ctx.Value(ctxKey{}).(string) + ":" + cv["user"].(string) + ":" + name
		}, Parameters("name"))

		res, err := def.Call(ctx, `{"name":"ali"}`, types.ContextVars{"user": "u1"})
		require.NoError(t, err)
		assert.Equal(t, "from-ctx:u1:ali", res.Value)
	})

	t.Run("returned context vars are surfaced", func(t *testing.T) {
		def := Must(func(id string) types.ContextVars {
			return types.ContextVars{"order_id": id}
		}, Parameters("id"))

		res, err := def.Call(context.Background(), `{"id":"1234"}`, nil)
		require.NoError(t, err)
		assert.Empty(t, res.Value)
		assert.Equal(t, types.ContextVars{"order_id": "1234"}, res.ContextVars)
	})
}
