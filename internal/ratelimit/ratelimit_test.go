package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseCountsUpToBudget(t *testing.T) {
	l := New(3)
	assert.Equal(t, 0, l.Used())

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Use())
	}
	assert.Equal(t, 3, l.Used())

	err := l.Use()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget exceeded")
	assert.Equal(t, 3, l.Used(), "a rejected request does not consume budget")
}

func TestZeroMaxMeansUnlimited(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Use())
	}
	assert.Equal(t, 100, l.Used())
}
