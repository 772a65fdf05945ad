package hash

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// FooterSize is the length of the checksum appended by Seal.
const FooterSize = 4

// ErrChecksum is returned by Open for a block whose footer does not match.
var ErrChecksum = errors.New("hash: checksum mismatch")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// Seal returns data followed by its little-endian CRC32C. data is not
// modified.
func Seal(data []byte) []byte {
	out := make([]byte, len(data), len(data)+FooterSize)
	copy(out, data)
	return binary.LittleEndian.AppendUint32(out, CRC32C(data))
}

// Open checks and strips the footer written by Seal. The returned slice
// aliases sealed.
func Open(sealed []byte) ([]byte, error) {
	n := len(sealed) - FooterSize
	if n < 0 {
		return nil, ErrChecksum
	}
	if binary.LittleEndian.Uint32(sealed[n:]) != CRC32C(sealed[:n]) {
		return nil, ErrChecksum
	}
	return sealed[:n], nil
}
