package memtable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutThenGet(t *testing.T) {
	m := New(1 << 20)
	m.Put([]byte("k"), []byte("v1"))
	v, ok := m.Get([]byte("k"))
	require.True(t, ok)
	assert.Equal(t, "v1", string(v))

	m.Put([]byte("k"), []byte("v2"))
	v, ok = m.Get([]byte("k"))
	require.True(t, ok)
	assert.Equal(t, "v2", string(v))
}

func TestDeleteMakesKeyAbsentButContained(t *testing.T) {
	m := New(1 << 20)
	m.Put([]byte("k"), []byte("v"))
	m.Delete([]byte("k"))

	_, ok := m.Get([]byte("k"))
	assert.False(t, ok, "Get after delete should report absent")
	assert.True(t, m.Contains([]byte("k")), "Contains should be true for a tombstoned key")
}

func TestRangeExcludesTombstonesAndOutOfBounds(t *testing.T) {
	m := New(1 << 20)
	m.Put([]byte("a"), []byte("1"))
	m.Put([]byte("b"), []byte("2"))
	m.Put([]byte("c"), []byte("3"))
	m.Delete([]byte("b"))

	got := m.Range([]byte("a"), []byte("c"))
	require.Len(t, got, 2, "b should be excluded as tombstone")
	assert.Equal(t, "a", string(got[0].Key))
	assert.Equal(t, "c", string(got[1].Key))
}

func TestIsOverFullAndClear(t *testing.T) {
	m := New(10)
	assert.False(t, m.IsOverFull(), "fresh memtable should not be over-full")
	m.Put([]byte("key"), []byte("value-longer-than-ten-bytes"))
	assert.True(t, m.IsOverFull(), "memtable should be over-full after a large insert")
	m.Clear()
	assert.False(t, m.IsOverFull())
	assert.Equal(t, 0, m.Len())
}

func TestConcurrentWritesToOneKey(t *testing.T) {
	m := New(1 << 20)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Put([]byte("k"), []byte{byte(i)})
		}(i)
	}
	wg.Wait()

	_, ok := m.Get([]byte("k"))
	assert.True(t, ok, "expected a value for k after concurrent writers")
}
