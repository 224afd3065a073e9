// Package memtable implements the thread-safe, ordered, in-memory write
// buffer that absorbs mutations between flushes.
package memtable

import (
	"sync"

	"hunddb/internal/entry"
	"hunddb/internal/memtable/skiplist"
)

// MemTable wraps a concurrent skip list with a byte-size watermark.
type MemTable struct {
	mu        sync.RWMutex
	list      *skiplist.SkipList
	size      int64
	watermark int64
}

// New creates an empty MemTable that is over-full once its approximate
// byte counter reaches watermark.
func New(watermark int64) *MemTable {
	return &MemTable{
		list:      skiplist.New(0),
		watermark: watermark,
	}
}

// Put inserts or overwrites the value for key and grows the size counter.
func (m *MemTable) Put(key, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list.Put(key, entry.Live(value))
	m.size += int64(len(key) + len(value))
}

// Delete marks key as a tombstone.
func (m *MemTable) Delete(key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list.Put(key, entry.Deleted())
	m.size += int64(len(key))
}

// Get returns the live value for key, or ok=false if the key is absent or
// its most recent write is a tombstone.
func (m *MemTable) Get(key []byte) (value []byte, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.Get(key)
}

// Contains reports whether key has any entry, live or tombstone.
func (m *MemTable) Contains(key []byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.Contains(key)
}

// Range returns the live (key, value) pairs with start <= key <= end.
func (m *MemTable) Range(start, end []byte) []skiplist.KV {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.Range(start, end)
}

// RangeAll returns every entry, tombstones included, with
// start <= key <= end.
func (m *MemTable) RangeAll(start, end []byte) []skiplist.KV {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.RangeAll(start, end)
}

// SortedEntries returns every entry, including tombstones, in ascending
// key order — the sequence a flush writes to a new SSTable.
func (m *MemTable) SortedEntries() []skiplist.KV {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.SortedEntries()
}

// Clear resets the MemTable to empty and zeroes the size counter.
func (m *MemTable) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = skiplist.New(0)
	m.size = 0
}

// IsOverFull reports whether the size counter has reached the watermark.
func (m *MemTable) IsOverFull() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size >= m.watermark
}

// Len returns the number of distinct keys currently held (live and
// tombstoned).
func (m *MemTable) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list.Len()
}
