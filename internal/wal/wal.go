// Package wal implements the write-ahead log: a single append-only file
// of length-prefixed, checksummed records that makes every acknowledged
// mutation durable before the engine reports success.
//
// Record layout (all integers big-endian):
//
//	[ total size  int32 ][ crc64  uint64 ][ key len int32 ][ key ][ value len int32 ][ value? ]
//	      4B               8B                  4B                      4B
//
// total size = 4 (itself) + 8 (crc64) + 4 (key len) + 4 (value len) +
// len(key) + len(value) — the whole record, header included. The crc64 is
// computed over the payload: everything from the key-length field
// through the end of the record.
package wal

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"hunddb/internal/bytesutil"
	"hunddb/internal/crc"
	"hunddb/internal/entry"
)

const (
	totalSizeFieldLen = 4
	crcFieldLen       = 8
	headerLen         = totalSizeFieldLen + crcFieldLen // minimum record header: size field + crc field
	keyLenFieldLen    = 4
	valueLenFieldLen  = 4
)

// tombstoneSentinel is the value-length field stored for a deleted key.
const tombstoneSentinel = -1

// Record is a single replayed mutation.
type Record struct {
	Key   []byte
	Entry entry.Entry
}

// WAL is the active write-ahead log file. Appends are serialized by mu
// and, when sync is enabled, fsync'd before returning, so a caller's
// "append succeeded" implies durability.
type WAL struct {
	mu   sync.Mutex
	file *os.File
	sync bool
}

// Open opens (creating if necessary) the WAL file at path for append.
// When sync is true, every Append and Clear is forced to durable media
// before returning.
func Open(path string, sync bool) (*WAL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	return &WAL{file: f, sync: sync}, nil
}

// Append writes one record for (key, e) to the end of the log and, if
// configured to sync, forces it to durable media before returning.
// Appending is serialized: at most one appender runs at a time.
func (w *WAL) Append(key []byte, e entry.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	valueLen := int32(tombstoneSentinel)
	var value []byte
	if !e.Tombstone {
		value = e.Value
		valueLen = int32(len(value))
	}

	payloadLen := keyLenFieldLen + len(key) + valueLenFieldLen + len(value)
	recordSize := headerLen + payloadLen // self-inclusive: counts its own 4-byte field too
	buf := make([]byte, recordSize)

	bytesutil.PutInt32(buf[0:4], int32(recordSize))

	payload := buf[headerLen:]
	off := 0
	bytesutil.PutInt32(payload[off:off+4], int32(len(key)))
	off += 4
	copy(payload[off:], key)
	off += len(key)
	bytesutil.PutInt32(payload[off:off+4], valueLen)
	off += 4
	copy(payload[off:], value)

	bytesutil.PutUint64(buf[4:12], crc.Checksum64(payload))

	if _, err := w.file.Write(buf); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	if w.sync {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("wal: sync: %w", err)
		}
	}
	return nil
}

// Clear truncates the log to zero length, used after a flush succeeds.
func (w *WAL) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.file.Truncate(0); err != nil {
		return fmt.Errorf("wal: truncate: %w", err)
	}
	if _, err := w.file.Seek(0, 0); err != nil {
		return fmt.Errorf("wal: seek: %w", err)
	}
	if w.sync {
		if err := w.file.Sync(); err != nil {
			return fmt.Errorf("wal: sync: %w", err)
		}
	}
	return nil
}

// Close releases the underlying file handle.
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll replays a WAL file from path, returning every intact record in
// write order. A missing file or one shorter than the minimum record
// header yields an empty (not error) result. Recovery stops — discarding
// everything from that point on — at the first short read or checksum
// mismatch, tolerating a torn tail left by a crash mid-append.
func ReadAll(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("wal: read %s: %w", path, err)
	}
	if len(data) < headerLen {
		return nil, nil
	}

	var records []Record
	off := 0
	for {
		if off+totalSizeFieldLen+crcFieldLen > len(data) {
			break
		}
		recordSize := int(bytesutil.Int32(data[off : off+4]))
		storedCRC := bytesutil.Uint64(data[off+4 : off+12])

		payloadLen := recordSize - headerLen
		payloadStart := off + headerLen
		payloadEnd := payloadStart + payloadLen
		if payloadLen < 0 || payloadEnd > len(data) {
			break // truncated tail
		}
		payload := data[payloadStart:payloadEnd]

		if crc.Checksum64(payload) != storedCRC {
			break // soft corruption
		}

		keyLen := int(bytesutil.Int32(payload[0:4]))
		if keyLen <= 0 || 4+keyLen+4 > len(payload) {
			break
		}
		key := append([]byte(nil), payload[4:4+keyLen]...)
		valueLen := int(bytesutil.Int32(payload[4+keyLen : 4+keyLen+4]))

		var rec Record
		rec.Key = key
		if valueLen == tombstoneSentinel {
			rec.Entry = entry.Deleted()
		} else {
			valStart := 4 + keyLen + 4
			valEnd := valStart + valueLen
			if valueLen < 0 || valEnd > len(payload) {
				break
			}
			value := append([]byte(nil), payload[valStart:valEnd]...)
			rec.Entry = entry.Live(value)
		}
		records = append(records, rec)

		off += recordSize
	}
	return records, nil
}
