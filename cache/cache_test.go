package cache

import (
	"testing"

	"btreestore/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockIsReused(t *testing.T) {
	c := NewCache(2)

	first, err := c.Block(crypto.Key{1, 2, 3, 4})
	require.NoError(t, err)
	again, err := c.Block(crypto.Key{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Same(t, first, again)
	assert.Equal(t, 1, c.GetSize())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)
	a, b, d := crypto.Key{1}, crypto.Key{2}, crypto.Key{3}

	for _, k := range []crypto.Key{a, b, a, d} {
		_, err := c.Block(k)
		require.NoError(t, err)
	}

	assert.True(t, c.Contains(a))
	assert.False(t, c.Contains(b))
	assert.True(t, c.Contains(d))
	assert.Equal(t, 2, c.GetSize())
}

func TestCachedBlockMatchesFreshBlock(t *testing.T) {
	c := NewCache(DefaultSize)
	key := crypto.Key{0xdeadbeef, 1, 2, 3}

	cached, err := c.Block(key)
	require.NoError(t, err)
	fresh, err := crypto.NewBlock(key)
	require.NoError(t, err)

	assert.Equal(t, fresh.EncryptWords([2]uint32{7, 9}), cached.EncryptWords([2]uint32{7, 9}))
}

func TestSetMaxSizeRemoveClear(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, 1, c.GetMaxSize())

	c.SetMaxSize(4)
	for i := uint32(0); i < 4; i++ {
		_, err := c.Block(crypto.Key{i})
		require.NoError(t, err)
	}
	assert.Equal(t, 4, c.GetSize())

	c.SetMaxSize(2)
	assert.Equal(t, 2, c.GetSize())
	assert.True(t, c.Contains(crypto.Key{3}))
	assert.False(t, c.Contains(crypto.Key{0}))

	assert.True(t, c.Remove(crypto.Key{3}))
	assert.False(t, c.Remove(crypto.Key{3}))

	c.Clear()
	assert.Equal(t, 0, c.GetSize())
}
