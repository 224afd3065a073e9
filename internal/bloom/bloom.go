// Package bloom implements the membership filter: a fixed-size bit array
// with k deterministic hash probes per key. It is never persisted — an
// SSTable rebuilds its filter by rescanning its keys on open, so the
// hashing must be a pure function of (key, probe index) with no random or
// time-based seeding.
package bloom

import (
	"strconv"

	"hunddb/internal/crc"
)

// Filter is a Bloom-filter-class membership oracle: false positives are
// permitted, false negatives are not.
type Filter struct {
	m uint32
	k int
	b []byte
}

// New creates an empty filter with m bits and k hash probes per key.
func New(m uint32, k int) *Filter {
	if m == 0 {
		m = 1
	}
	if k < 1 {
		k = 1
	}
	return &Filter{
		m: m,
		k: k,
		b: make([]byte, (m+7)/8),
	}
}

// Add marks key as possibly present.
func (f *Filter) Add(key []byte) {
	for i := 1; i <= f.k; i++ {
		pos := f.probe(key, i)
		f.b[pos/8] |= 1 << (pos % 8)
	}
}

// MightContain returns false only if Add(key) was never called.
func (f *Filter) MightContain(key []byte) bool {
	for i := 1; i <= f.k; i++ {
		pos := f.probe(key, i)
		if f.b[pos/8]&(1<<(pos%8)) == 0 {
			return false
		}
	}
	return true
}

// probe derives the i-th hash position for key: prefix the key with the
// decimal rendering of the probe index, checksum it, and reduce mod m.
// This is the same computation on write and on rebuild-by-rescan, so the
// filter never needs to be written to disk.
func (f *Filter) probe(key []byte, i int) uint32 {
	buf := make([]byte, 0, len(key)+4)
	buf = append(buf, strconv.Itoa(i)...)
	buf = append(buf, key...)
	return crc.Checksum32(buf) % f.m
}
