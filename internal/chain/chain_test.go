package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(t *testing.T, c *Chain, b TrackedBlock) error {
	t.Helper()
	isFork, err := c.Add(b)
	assert.False(t, isFork)
	return err
}

func TestChainAddBlock(t *testing.T) {
	lib0 := TrackedBlock{Number: 0, Hash: "0"}
	lib4 := TrackedBlock{Number: 4, Hash: "4"}
	block1 := TrackedBlock{Number: 1, Hash: "1"}
	block2 := TrackedBlock{Number: 2, Hash: "2"}
	block3 := TrackedBlock{Number: 3, Hash: "3"}
	block4 := TrackedBlock{Number: 4, Hash: "4"}
	block5 := TrackedBlock{Number: 5, Hash: "5"}
	block6 := TrackedBlock{Number: 6, Hash: "6"}

	c := New()
	updated, err := c.SetLib(lib0)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.NoError(t, add(t, c, block1))
	assert.Error(t, add(t, c, block3))
	assert.NoError(t, add(t, c, block2))
	assert.Error(t, add(t, c, block2))
	assert.NoError(t, add(t, c, block3))

	assert.Equal(t, 3, c.Length())

	assert.NoError(t, add(t, c, block4))
	assert.NoError(t, add(t, c, block5))
	assert.NoError(t, add(t, c, block6))

	assert.Equal(t, 6, c.Length())

	updated, err = c.SetLib(lib4)
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, 3, c.Length())

	assert.Error(t, add(t, c, block5))
	assert.Error(t, add(t, c, block6))
}

func TestChainSetLibNoopOnRepeat(t *testing.T) {
	c := New()
	lib := TrackedBlock{Number: 10, Hash: "a"}
	updated, err := c.SetLib(lib)
	require.NoError(t, err)
	require.NotNil(t, updated)

	updated, err = c.SetLib(lib)
	require.NoError(t, err)
	assert.Nil(t, updated)
}

func TestChainSetLibRegressionFails(t *testing.T) {
	c := New()
	_, err := c.SetLib(TrackedBlock{Number: 10, Hash: "a"})
	require.NoError(t, err)

	_, err = c.SetLib(TrackedBlock{Number: 5, Hash: "b"})
	assert.Error(t, err)
}

func TestChainAddWithoutLibFails(t *testing.T) {
	c := New()
	_, err := c.Add(TrackedBlock{Number: 1, Hash: "1"})
	assert.Error(t, err)
}

func TestChainLastOrLib(t *testing.T) {
	c := New()
	_, ok := c.LastOrLib()
	assert.False(t, ok)

	lib := TrackedBlock{Number: 7, Hash: "7"}
	_, err := c.SetLib(lib)
	require.NoError(t, err)

	got, ok := c.LastOrLib()
	require.True(t, ok)
	assert.Equal(t, lib, got)

	head := TrackedBlock{Number: 8, Hash: "8"}
	_, err = c.Add(head)
	require.NoError(t, err)

	got, ok = c.LastOrLib()
	require.True(t, ok)
	assert.Equal(t, head, got)
}
