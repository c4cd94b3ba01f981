package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/wui/internal/shared/id"
)

func entry(label string) *Entry {
	return &Entry{ID: id.NewWindowID(), Label: label}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	main, settings := entry("main"), entry("settings")

	require.NoError(t, r.Register(main))
	require.NoError(t, r.Register(settings))

	err := r.Register(entry("main"))
	assert.ErrorIs(t, err, ErrDuplicateLabel)

	got, ok := r.Find("main")
	require.True(t, ok)
	assert.Same(t, main, got, "a duplicate never replaces the existing entry")

	got, ok = r.FindByID(settings.ID)
	require.True(t, ok)
	assert.Same(t, settings, got)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"main", "settings"}, r.Labels())
	assert.Equal(t, map[string]id.WindowID{"main": main.ID, "settings": settings.ID}, r.Snapshot())
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	a, b, c := entry("a"), entry("b"), entry("c")
	for _, e := range []*Entry{a, b, c} {
		require.NoError(t, r.Register(e))
	}

	removed, ok := r.Remove("b")
	require.True(t, ok)
	assert.Same(t, b, removed)

	_, ok = r.RemoveByID(b.ID)
	assert.False(t, ok)

	_, ok = r.RemoveByID(a.ID)
	assert.True(t, ok)
	assert.Equal(t, []string{"c"}, r.Labels())

	// Labels may be reused once closed.
	require.NoError(t, r.Register(entry("b")))
	assert.True(t, r.Has("b"))
	assert.Len(t, r.Entries(), 2)
}
