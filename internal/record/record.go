// Package record defines the on-disk layout of a single key/value entry in
// data.db and encodes/decodes it.
//
// Layout (all integers big-endian):
//
//	key_len   uint32
//	key       []byte
//	value_len uint32
//	value     []byte
package record

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the number of bytes preceding the key in an encoded record.
const HeaderSize = 4

// Encode appends the on-disk representation of key/value to dst and returns
// the extended slice along with the total number of bytes written.
func Encode(dst []byte, key, value []byte) ([]byte, int) {
	start := len(dst)

	var lenBuf [4]byte

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, key...)

	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
	dst = append(dst, lenBuf[:]...)
	dst = append(dst, value...)

	return dst, len(dst) - start
}

// Size returns the total encoded length of a key/value pair without
// allocating.
func Size(key, value []byte) int {
	return HeaderSize + len(key) + HeaderSize + len(value)
}

// Decode reads a single record starting at offset within buf, returning the
// key, the value, and the total number of bytes the record occupies. The
// key and value slices alias buf and must be copied by the caller if they
// need to outlive it.
func Decode(buf []byte, offset int64) (key, value []byte, size int, err error) {
	o := int(offset)
	if o < 0 || o+HeaderSize > len(buf) {
		return nil, nil, 0, fmt.Errorf("record: truncated header at offset %d", offset)
	}

	keyLen := int(binary.BigEndian.Uint32(buf[o : o+4]))
	o += HeaderSize
	if o+keyLen > len(buf) {
		return nil, nil, 0, fmt.Errorf("record: truncated key at offset %d", offset)
	}
	key = buf[o : o+keyLen]
	o += keyLen

	if o+HeaderSize > len(buf) {
		return nil, nil, 0, fmt.Errorf("record: truncated value header at offset %d", offset)
	}
	valLen := int(binary.BigEndian.Uint32(buf[o : o+4]))
	o += HeaderSize
	if o+valLen > len(buf) {
		return nil, nil, 0, fmt.Errorf("record: truncated value at offset %d", offset)
	}
	value = buf[o : o+valLen]
	o += valLen

	return key, value, o - int(offset), nil
}
