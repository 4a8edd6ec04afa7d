package stdx

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMust0(t *testing.T) {
	assert.NotPanics(t, func() { Must0(nil) })
	assert.PanicsWithError(t, "boom", func() { Must0(errors.New("boom")) })
}

func TestMust1(t *testing.T) {
	assert.Equal(t, 42, Must1(42, nil))
	assert.PanicsWithError(t, "boom", func() { Must1("", errors.New("boom")) })
}

func TestZero(t *testing.T) {
	assert.Equal(t, 0, Zero[int]())
	assert.Equal(t, "", Zero[string]())
	assert.Nil(t, Zero[*int]())
	assert.Nil(t, Zero[map[string]any]())
}
