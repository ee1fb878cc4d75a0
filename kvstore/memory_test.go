package kvstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	v, err := m.Get([]byte("nope"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryPutGetDelete(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put([]byte("k"), []byte("v")))

	v, err := m.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, m.Delete([]byte("k")))
	v, err = m.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryBatchAtomic(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put([]byte("a"), []byte("1")))

	err := m.Batch([]Op{
		{Kind: OpPut, Key: []byte("b"), Value: []byte("2")},
		{Kind: OpPut, Key: []byte("c"), Value: nil},
	})
	require.ErrorIs(t, err, ErrInvalidOp)

	// Nothing from the failed batch should have landed.
	v, _ := m.Get([]byte("b"))
	require.Nil(t, v)

	require.NoError(t, m.Batch([]Op{
		{Kind: OpPut, Key: []byte("b"), Value: []byte("2")},
		{Kind: OpDel, Key: []byte("a")},
	}))
	v, _ = m.Get([]byte("b"))
	require.Equal(t, []byte("2"), v)
	v, _ = m.Get([]byte("a"))
	require.Nil(t, v)
}

func TestMemoryCopyIsIndependent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put([]byte("k"), []byte("v1")))

	clone := m.Copy()
	require.NoError(t, m.Put([]byte("k"), []byte("v2")))

	v, _ := clone.Get([]byte("k"))
	require.Equal(t, []byte("v1"), v)

	v, _ = m.Get([]byte("k"))
	require.Equal(t, []byte("v2"), v)
}
