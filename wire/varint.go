package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// CompactSize is spec.md's "varint": one byte below 0xfd is its own
// value; 0xfd introduces a u16; 0xfe a u32; 0xff a u64. Writers always
// emit the shortest encoding for a given value (Testable Property 3);
// readers accept any encoding, canonical or not.
type CompactSize uint64

// Encode returns the shortest-form byte encoding of cs.
func (cs CompactSize) Encode() []byte {
	v := uint64(cs)
	switch {
	case v < 0xfd:
		return []byte{byte(v)}
	case v <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		return buf
	case v <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], v)
		return buf
	}
}

// DecodeCompactSize decodes a CompactSize from the front of b, returning
// the value and the number of bytes consumed.
func DecodeCompactSize(b []byte) (CompactSize, int, error) {
	if len(b) == 0 {
		return 0, 0, badFormat("compactsize", "empty input")
	}
	switch b[0] {
	case 0xfd:
		if len(b) < 3 {
			return 0, 0, badFormat("compactsize", "truncated u16 prefix")
		}
		return CompactSize(binary.LittleEndian.Uint16(b[1:3])), 3, nil
	case 0xfe:
		if len(b) < 5 {
			return 0, 0, badFormat("compactsize", "truncated u32 prefix")
		}
		return CompactSize(binary.LittleEndian.Uint32(b[1:5])), 5, nil
	case 0xff:
		if len(b) < 9 {
			return 0, 0, badFormat("compactsize", "truncated u64 prefix")
		}
		return CompactSize(binary.LittleEndian.Uint64(b[1:9])), 9, nil
	default:
		return CompactSize(b[0]), 1, nil
	}
}

// ReadCompactSize reads a CompactSize from r.
func ReadCompactSize(r io.Reader) (CompactSize, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, err
	}
	switch first[0] {
	case 0xfd:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return CompactSize(binary.LittleEndian.Uint16(b[:])), nil
	case 0xfe:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return CompactSize(binary.LittleEndian.Uint32(b[:])), nil
	case 0xff:
		var b [8]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return CompactSize(binary.LittleEndian.Uint64(b[:])), nil
	default:
		return CompactSize(first[0]), nil
	}
}

// WriteVarBytes writes a CompactSize length prefix followed by b.
func WriteVarBytes(b []byte) []byte {
	out := CompactSize(len(b)).Encode()
	return append(out, b...)
}

// ReadVarBytes reads a length-prefixed byte string from the front of b,
// enforcing maxLen, and returns the bytes plus the total size consumed.
func ReadVarBytes(b []byte, maxLen uint64, field string) ([]byte, int, error) {
	n, used, err := DecodeCompactSize(b)
	if err != nil {
		return nil, 0, err
	}
	if uint64(n) > maxLen {
		return nil, 0, badFormat(field, fmt.Sprintf("length %d exceeds max %d", n, maxLen))
	}
	end := used + int(n)
	if end > len(b) || end < used {
		return nil, 0, badFormat(field, "truncated payload")
	}
	return b[used:end], end, nil
}
