// Package sstable implements the immutable on-disk sorted run: a flat
// file of sequential key/value entries, an in-memory sparse index over a
// subset of its keys, and a membership filter — both the index and the
// filter are rebuilt by a single sequential scan whenever the file is
// opened, never persisted alongside it.
//
// On-disk format (no header, no footer), entries strictly ascending by
// key:
//
//	[ key len int32 ][ key ][ value len int32 ][ value? ]
//
// value len -1 marks a tombstone.
package sstable

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"hunddb/internal/bloom"
	"hunddb/internal/bytesutil"
	"hunddb/internal/entry"
)

const tombstoneSentinel = -1

// ErrTruncatedEntry is returned by Open when a scan cannot read a
// complete entry — the file is corrupt and must not be served.
var ErrTruncatedEntry = errors.New("sstable: truncated entry")

// KV is one sorted entry handed to Write.
type KV struct {
	Key   []byte
	Entry entry.Entry
}

// SearchResult is the outcome of a point lookup.
type SearchResult struct {
	Found bool
	Value []byte // meaningless unless Found && !Tombstone
	// Tombstone is true when Found is true but the located entry is a
	// deletion marker rather than a live value.
	Tombstone bool
}

type indexEntry struct {
	key    []byte
	offset int64
}

// SSTable is an immutable, sorted, on-disk run opened with an in-memory
// sparse index and membership filter.
type SSTable struct {
	path   string
	mu     sync.Mutex // serializes seek+read on the shared file handle
	file   *os.File
	index  []indexEntry
	step   int
	filter *bloom.Filter
}

// Write encodes entries (already sorted ascending by key, no duplicate
// keys) to path and forces the contents to durable media. It performs no
// indexing of its own — Open is always called afterward to build the
// sparse index and membership filter by rescanning, matching the flush
// protocol's write-then-reopen sequence.
func Write(path string, entries []KV) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sstable: create %s: %w", path, err)
	}
	defer f.Close()

	for _, kv := range entries {
		if err := writeEntry(f, kv); err != nil {
			return fmt.Errorf("sstable: write %s: %w", path, err)
		}
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sstable: sync %s: %w", path, err)
	}
	return nil
}

func writeEntry(w io.Writer, kv KV) error {
	keyLenBuf := make([]byte, 4)
	bytesutil.PutInt32(keyLenBuf, int32(len(kv.Key)))
	if _, err := w.Write(keyLenBuf); err != nil {
		return err
	}
	if _, err := w.Write(kv.Key); err != nil {
		return err
	}

	valLenBuf := make([]byte, 4)
	if kv.Entry.Tombstone {
		bytesutil.PutInt32(valLenBuf, tombstoneSentinel)
		_, err := w.Write(valLenBuf)
		return err
	}
	bytesutil.PutInt32(valLenBuf, int32(len(kv.Entry.Value)))
	if _, err := w.Write(valLenBuf); err != nil {
		return err
	}
	_, err := w.Write(kv.Entry.Value)
	return err
}

// Open opens an existing SSTable file, scanning it once to rebuild the
// sparse index (every step-th entry) and the membership filter (every
// key). A scan that cannot read a complete entry is a fatal open error.
func Open(path string, step int, bloomBits uint32, bloomHashes int) (*SSTable, error) {
	if step < 1 {
		step = 1
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sstable: open %s: %w", path, err)
	}

	s := &SSTable{
		path:   path,
		file:   f,
		step:   step,
		filter: bloom.New(bloomBits, bloomHashes),
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sstable: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		return s, nil
	}

	var offset int64
	i := 0
	header := make([]byte, 8)
	for {
		n, err := io.ReadFull(f, header[:4])
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncatedEntry, path, offset)
		}
		keyLen := int(bytesutil.Int32(header[0:4]))
		if keyLen <= 0 {
			f.Close()
			return nil, fmt.Errorf("%w: %s at offset %d: bad key length", ErrTruncatedEntry, path, offset)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(f, key); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncatedEntry, path, offset)
		}
		if _, err := io.ReadFull(f, header[4:8]); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncatedEntry, path, offset)
		}
		valLen := int(bytesutil.Int32(header[4:8]))

		if i%step == 0 {
			s.index = append(s.index, indexEntry{key: key, offset: offset})
		}
		s.filter.Add(key)

		entryLen := int64(4 + keyLen + 4)
		if valLen != tombstoneSentinel {
			if valLen < 0 {
				f.Close()
				return nil, fmt.Errorf("%w: %s at offset %d: bad value length", ErrTruncatedEntry, path, offset)
			}
			if _, err := f.Seek(int64(valLen), io.SeekCurrent); err != nil {
				f.Close()
				return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncatedEntry, path, offset)
			}
			entryLen += int64(valLen)
		}
		if offset+entryLen > info.Size() {
			f.Close()
			return nil, fmt.Errorf("%w: %s at offset %d", ErrTruncatedEntry, path, offset)
		}

		offset += entryLen
		i++
	}

	return s, nil
}

// Close releases the underlying file handle.
func (s *SSTable) Close() error {
	return s.file.Close()
}

// floor returns the indexed key with the largest key <= target, and its
// offset. ok is false if no indexed key is <= target.
func (s *SSTable) floor(target []byte) (offset int64, ok bool) {
	// sort.Search finds the first index whose key is > target; the floor
	// is the entry just before it.
	i := sort.Search(len(s.index), func(i int) bool {
		return compare(s.index[i].key, target) > 0
	})
	if i == 0 {
		return 0, false
	}
	return s.index[i-1].offset, true
}

func compare(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Lookup performs a point lookup for key, per the engine's read protocol:
// a membership-filter short-circuit, then a sparse-index jump followed by
// a forward scan that stops as soon as ordering rules out a match.
func (s *SSTable) Lookup(key []byte) (SearchResult, error) {
	if !s.filter.MightContain(key) {
		return SearchResult{}, nil
	}

	offset, ok := s.floor(key)
	if !ok {
		return SearchResult{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(offset, io.SeekStart); err != nil {
		return SearchResult{}, fmt.Errorf("sstable: seek %s: %w", s.path, err)
	}

	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(s.file, header[:4]); err != nil {
			if err == io.EOF {
				return SearchResult{}, nil
			}
			return SearchResult{}, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		keyLen := int(bytesutil.Int32(header[0:4]))
		curKey := make([]byte, keyLen)
		if _, err := io.ReadFull(s.file, curKey); err != nil {
			return SearchResult{}, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		if _, err := io.ReadFull(s.file, header[4:8]); err != nil {
			return SearchResult{}, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		valLen := int(bytesutil.Int32(header[4:8]))

		cmp := compare(curKey, key)
		if cmp == 0 {
			if valLen == tombstoneSentinel {
				return SearchResult{Found: true, Tombstone: true}, nil
			}
			value := make([]byte, valLen)
			if _, err := io.ReadFull(s.file, value); err != nil {
				return SearchResult{}, fmt.Errorf("sstable: read %s: %w", s.path, err)
			}
			return SearchResult{Found: true, Value: value}, nil
		}
		if cmp > 0 {
			return SearchResult{}, nil
		}
		if valLen != tombstoneSentinel {
			if _, err := s.file.Seek(int64(valLen), io.SeekCurrent); err != nil {
				return SearchResult{}, fmt.Errorf("sstable: seek %s: %w", s.path, err)
			}
		}
	}
}

// Range scans [start, end] inclusive, returning every entry encountered
// including tombstones — callers (the engine's merge layer) decide how
// tombstones are folded into the final result.
func (s *SSTable) Range(start, end []byte) ([]KV, error) {
	var from int64
	if len(s.index) > 0 {
		if off, ok := s.floor(start); ok {
			from = off
		} else {
			from = s.index[0].offset
		}
	} else {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Seek(from, io.SeekStart); err != nil {
		return nil, fmt.Errorf("sstable: seek %s: %w", s.path, err)
	}

	var out []KV
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(s.file, header[:4]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		keyLen := int(bytesutil.Int32(header[0:4]))
		curKey := make([]byte, keyLen)
		if _, err := io.ReadFull(s.file, curKey); err != nil {
			return nil, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		if _, err := io.ReadFull(s.file, header[4:8]); err != nil {
			return nil, fmt.Errorf("sstable: read %s: %w", s.path, err)
		}
		valLen := int(bytesutil.Int32(header[4:8]))

		if compare(curKey, end) > 0 {
			break
		}

		var e entry.Entry
		if valLen == tombstoneSentinel {
			e = entry.Deleted()
		} else {
			value := make([]byte, valLen)
			if _, err := io.ReadFull(s.file, value); err != nil {
				return nil, fmt.Errorf("sstable: read %s: %w", s.path, err)
			}
			e = entry.Live(value)
		}

		if compare(curKey, start) >= 0 {
			out = append(out, KV{Key: curKey, Entry: e})
		}
	}
	return out, nil
}

// CheckIntegrity re-scans the whole file, verifying every entry can be
// decoded. It returns the first decode error encountered, or nil if the
// file is well-formed.
func CheckIntegrity(path string) error {
	s, err := Open(path, 1, 1, 1)
	if err != nil {
		return err
	}
	return s.Close()
}
