package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vgarvardt/gue/v5/adapter"
)

func TestGueLogAdapter_With(t *testing.T) {
	l := NewGueLoggerAdapter("worker")
	l1 := l.With(adapter.F("a", 1)).(*GueLogAdapter)
	l2 := l1.With(adapter.F("b", 2)).(*GueLogAdapter)

	assert.Equal(t, "worker", l2.pool)
	assert.Equal(t, []adapter.Field{adapter.F("a", 1), adapter.F("b", 2)}, l2.fields)
	assert.Equal(t, []adapter.Field{adapter.F("a", 1)}, l1.fields)
	assert.Empty(t, l.fields)
}
