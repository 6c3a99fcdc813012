package spi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedCache_EmptySetIsEvicted(t *testing.T) {
	t.Parallel()

	c := newResolvedCache()
	c.store("a.Plugin", &resolvedSet{})
	assert.Equal(t, 1, c.len())

	_, ok := c.get("a.Plugin")
	assert.False(t, ok)
	assert.Equal(t, 0, c.len(), "empty set is pruned on lookup")
}

// TestResolvedCache_FirstWriterWins verifies a second store returns the set already cached.
func TestResolvedCache_FirstWriterWins(t *testing.T) {
	t.Parallel()

	c := newResolvedCache()
	first := &resolvedSet{builders: []string{"a.A_Builder"}, values: []any{1}}
	second := &resolvedSet{builders: []string{"a.A_Builder"}, values: []any{2}}

	require.Same(t, first, c.store("a.Plugin", first))
	assert.Same(t, first, c.store("a.Plugin", second))

	got, ok := c.get("a.Plugin")
	require.True(t, ok)
	assert.Same(t, first, got)
}

// TestResolvedCache_StoreOverEmpty verifies a non-empty set replaces a cached empty one.
func TestResolvedCache_StoreOverEmpty(t *testing.T) {
	t.Parallel()

	c := newResolvedCache()
	c.store("a.Plugin", &resolvedSet{})

	full := &resolvedSet{builders: []string{"a.A_Builder"}, values: []any{1}}
	assert.Same(t, full, c.store("a.Plugin", full))

	got, ok := c.get("a.Plugin")
	require.True(t, ok)
	assert.Same(t, full, got)
}
