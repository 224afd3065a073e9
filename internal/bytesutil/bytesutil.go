// Package bytesutil holds the big-endian integer codec helpers shared by
// the WAL and SSTable record formats.
package bytesutil

import "encoding/binary"

// PutInt32 writes v as a big-endian signed 32-bit integer into buf[0:4].
func PutInt32(buf []byte, v int32) {
	binary.BigEndian.PutUint32(buf, uint32(v))
}

// Int32 reads a big-endian signed 32-bit integer from buf[0:4].
func Int32(buf []byte) int32 {
	return int32(binary.BigEndian.Uint32(buf))
}

// PutUint64 writes v as a big-endian unsigned 64-bit integer into buf[0:8].
func PutUint64(buf []byte, v uint64) {
	binary.BigEndian.PutUint64(buf, v)
}

// Uint64 reads a big-endian unsigned 64-bit integer from buf[0:8].
func Uint64(buf []byte) uint64 {
	return binary.BigEndian.Uint64(buf)
}
