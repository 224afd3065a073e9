package bloom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoFalseNegatives(t *testing.T) {
	f := New(1000, 3)
	keys := [][]byte{[]byte("alpha"), []byte("beta"), []byte("gamma"), []byte("delta")}
	for _, k := range keys {
		f.Add(k)
	}
	for _, k := range keys {
		assert.Truef(t, f.MightContain(k), "MightContain(%s) = false, want true (false negative)", k)
	}
}

func TestAbsentKeyMayReportFalse(t *testing.T) {
	f := New(100_000, 3)
	f.Add([]byte("present"))
	if f.MightContain([]byte("definitely-not-added")) {
		t.Skip("false positive, acceptable under the filter's contract")
	}
}

func TestDeterministicAcrossRebuild(t *testing.T) {
	keys := [][]byte{[]byte("k1"), []byte("k2"), []byte("k3")}

	f1 := New(100_000, 3)
	for _, k := range keys {
		f1.Add(k)
	}

	// Rebuilding by rescanning must reproduce the exact same filter state.
	f2 := New(100_000, 3)
	for _, k := range keys {
		f2.Add(k)
	}

	require.Equal(t, f1.b, f2.b, "rebuild produced different bit array")
}
