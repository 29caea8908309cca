package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirCache(t *testing.T) {
	c, err := NewDirCache(2)
	require.NoError(t, err)

	assert.False(t, c.Has("/out/a"))
	c.Add("/out/a")
	assert.True(t, c.Has("/out/a"))

	c.Add("/out/b")
	c.Add("/out/c")
	assert.Equal(t, 2, c.Len())
	assert.False(t, c.Has("/out/a"), "oldest entry should be evicted")
	assert.True(t, c.Has("/out/c"))
}

func TestDirCache_DefaultSize(t *testing.T) {
	c, err := NewDirCache(0)
	require.NoError(t, err)

	for i := 0; i < DefaultDirCacheSize+10; i++ {
		c.Add(fmt.Sprintf("/out/%d", i))
	}
	assert.Equal(t, DefaultDirCacheSize, c.Len())
}
