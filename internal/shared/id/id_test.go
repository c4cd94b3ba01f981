package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	assert.NotEqual(t, id1.String(), id2.String())
	assert.Equal(t, -1, id1.Compare(id2), "ids from one generator should sort in creation order")
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{WindowPrefix, TracePrefix} {
		got := gen.GenerateWithPrefix(prefix)

		assert.True(t, strings.HasPrefix(got, prefix+"_"), got)
		assert.True(t, Valid(got, prefix), got)
	}
}

func TestTypedIDs(t *testing.T) {
	win := NewWindowID()
	trace := NewTraceID()

	assert.True(t, Valid(win.String(), WindowPrefix))
	assert.True(t, Valid(trace.String(), TracePrefix))
	assert.False(t, Valid(win.String(), TracePrefix))
	assert.NotEmpty(t, NewInstanceID().String())
}

func TestValidRejectsGarbage(t *testing.T) {
	assert.False(t, Valid("win_not-a-ulid", WindowPrefix))
	assert.False(t, Valid("", WindowPrefix))
	assert.False(t, Valid("Window 1", WindowPrefix))
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	win := NewWindowID()

	ts, err := Timestamp(win.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("win_bogus")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[WindowID]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				w := NewWindowID()
				mu.Lock()
				seen[w] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
