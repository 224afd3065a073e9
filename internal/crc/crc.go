// Package crc is the tree's one shared integrity-hashing utility: WAL
// records are protected by a 64-bit checksum, and the membership filter
// derives its probe positions from a 32-bit checksum.
package crc

import (
	"hash/crc32"
	"hash/crc64"
)

var crc64Table = crc64.MakeTable(crc64.ISO)

// Checksum64 computes the 64-bit CRC used to protect a WAL record's payload.
func Checksum64(payload []byte) uint64 {
	return crc64.Checksum(payload, crc64Table)
}

// Checksum32 computes the 32-bit CRC used to derive a membership filter
// probe position from a key.
func Checksum32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}
