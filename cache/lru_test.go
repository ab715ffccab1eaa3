package cache

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLRURejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0} {
		_, err := NewLRU[string, int](capacity)
		require.Error(t, err)
	}
}

func TestLRUPutGetDelete(t *testing.T) {
	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	c.Put("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	c.Put("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	require.Equal(t, 2, v)

	c.Delete("a")
	_, ok = c.Get("a")
	require.False(t, ok)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[int, string](2)
	require.NoError(t, err)

	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(3, "c")

	_, ok := c.Get(1)
	require.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.Get(2)
	require.True(t, ok)
	_, ok = c.Get(3)
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c, err := NewLRU[int, string](2)
	require.NoError(t, err)

	c.Put(1, "a")
	c.Put(2, "b")
	c.Get(1) // touch 1 so 2 becomes the next eviction candidate
	c.Put(3, "c")

	_, ok := c.Get(2)
	require.False(t, ok, "2 should have been evicted instead of 1")
	_, ok = c.Get(1)
	require.True(t, ok)
	_, ok = c.Get(3)
	require.True(t, ok)
}

func TestLRUPutOnExistingKeyDoesNotEvict(t *testing.T) {
	c, err := NewLRU[int, string](2)
	require.NoError(t, err)

	c.Put(1, "a")
	c.Put(2, "b")
	c.Put(1, "a-updated") // overwrite, not an insert: capacity is not exceeded

	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "a-updated", v)
	_, ok = c.Get(2)
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}

// TestLRUWithReflectTypeKeys exercises the same key shape TypeResolver uses the cache
// with: reflect.Type values rather than comparable scalars.
func TestLRUWithReflectTypeKeys(t *testing.T) {
	c, err := NewLRU[reflect.Type, string](4)
	require.NoError(t, err)

	intType := reflect.TypeOf(0)
	strType := reflect.TypeOf("")

	c.Put(intType, "int")
	c.Put(strType, "string")

	v, ok := c.Get(intType)
	require.True(t, ok)
	require.Equal(t, "int", v)

	c.Delete(strType)
	_, ok = c.Get(strType)
	require.False(t, ok)
}
