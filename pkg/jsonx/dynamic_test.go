package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDynamicJSON(t *testing.T) {
	type params struct {
		Location string `json:"location"`
		Unit     string `json:"unit,omitempty"`
	}

	got, err := ToDynamicJSON(params{Location: "Karachi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"location": "Karachi"}, got)

	_, err = ToDynamicJSON(func() {})
	assert.Error(t, err)
}

func TestCompact(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Compact(map[string]int{"a": 1}))
	assert.Equal(t, "{}", Compact(make(chan int)))
}
