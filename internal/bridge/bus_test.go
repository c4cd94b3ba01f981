package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus(t *testing.T) {
	b := NewBus()
	assert.ErrorIs(t, b.Post(ExitAll{}), ErrNotRunning)

	b.Open()
	require.NoError(t, b.Post(EmitEvent{Name: "a"}))
	require.NoError(t, b.Post(EmitEvent{Name: "b"}))
	require.NoError(t, b.Post(CloseWindow{Label: "main"}))

	select {
	case <-b.Notify():
	default:
		t.Fatal("no wakeup after post")
	}

	assert.Equal(t, []Command{
		EmitEvent{Name: "a"},
		EmitEvent{Name: "b"},
		CloseWindow{Label: "main"},
	}, b.Drain())
	assert.Empty(t, b.Drain())

	b.Close()
	assert.ErrorIs(t, b.Post(ExitAll{}), ErrNotRunning)
}

func TestBusNeverBlocks(t *testing.T) {
	b := NewBus()
	b.Open()

	for i := 0; i < 10000; i++ {
		require.NoError(t, b.Post(ExitAll{}))
	}
	assert.Len(t, b.Drain(), 10000)
}
