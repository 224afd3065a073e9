package sstable

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hunddb/internal/entry"
)

func kvs() []KV {
	return []KV{
		{Key: []byte("a"), Entry: entry.Live([]byte("1"))},
		{Key: []byte("b"), Entry: entry.Deleted()},
		{Key: []byte("c"), Entry: entry.Live([]byte("3"))},
		{Key: []byte("d"), Entry: entry.Live([]byte("4"))},
	}
}

func writeAndOpen(t *testing.T, entries []KV, step int) *SSTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0000000000.db")
	require.NoError(t, Write(path, entries))
	s, err := Open(path, step, 100_000, 3)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLookupLiveAndTombstoneAndMiss(t *testing.T) {
	s := writeAndOpen(t, kvs(), 2)

	res, err := s.Lookup([]byte("a"))
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.False(t, res.Tombstone)
	assert.Equal(t, "1", string(res.Value))

	res, err = s.Lookup([]byte("b"))
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.True(t, res.Tombstone)

	res, err = s.Lookup([]byte("zzz"))
	require.NoError(t, err)
	assert.False(t, res.Found)

	res, err = s.Lookup([]byte("0"))
	require.NoError(t, err)
	assert.False(t, res.Found, "key before all indexed keys should report not found")
}

func TestRangeIncludesTombstonesForMergeLayer(t *testing.T) {
	s := writeAndOpen(t, kvs(), 1)

	got, err := s.Range([]byte("a"), []byte("c"))
	require.NoError(t, err)
	require.Len(t, got, 3, "a,b,c incl. tombstone")
	assert.True(t, got[1].Entry.Tombstone, "expected b to be a tombstone entry in range output")
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000000000.db")
	require.NoError(t, Write(path, kvs()))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-2))

	_, err = Open(path, 1, 100_000, 3)
	assert.Error(t, err, "expected Open to fail on a truncated file")
}

func TestCheckIntegrity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0000000000.db")
	require.NoError(t, Write(path, kvs()))
	assert.NoError(t, CheckIntegrity(path))
}

// Scenario F — the membership filter must short-circuit a miss without
// touching the file. Proven here by closing the underlying file handle
// after Open: a genuinely absent key must still resolve cleanly (no I/O
// error), while a present key's lookup would now fail, showing the miss
// path truly never reached the file.
func TestScenarioF_BloomShortCircuitsOnMiss(t *testing.T) {
	entries := make([]KV, 0, 10_000)
	for i := 0; i < 10_000; i++ {
		entries = append(entries, KV{
			Key:   []byte(fmt.Sprintf("key-%05d", i)),
			Entry: entry.Live([]byte("v")),
		})
	}
	path := filepath.Join(t.TempDir(), "0000000000.db")
	require.NoError(t, Write(path, entries))
	s, err := Open(path, 100, 100_000, 3)
	require.NoError(t, err)

	require.NoError(t, s.file.Close())

	// "key-05000x" sorts inside the table's key range, so the sparse index
	// has a floor for it: only the membership filter can keep it off disk.
	res, err := s.Lookup([]byte("key-05000x"))
	require.NoError(t, err, "Lookup of an absent key touched the closed file")
	assert.False(t, res.Found)

	_, err = s.Lookup([]byte("key-00042"))
	assert.Error(t, err, "expected Lookup of a present key to fail once the file handle is closed, proving the miss path above used no I/O")
}
