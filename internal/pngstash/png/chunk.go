package png

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"
)

const (
	// MaxChunkLength is the largest payload the wire format allows.
	// The length field is four bytes but the high bit must stay clear.
	MaxChunkLength = 1<<31 - 1

	chunkHeaderSize = 8 // 4 byte length + 4 byte type
	chunkCRCSize    = 4
)

// Chunk is a single length-prefixed, type-tagged, checksummed record.
// A chunk never changes after construction; accessors hand out copies.
type Chunk struct {
	chunkType ChunkType
	data      []byte
	crc       uint32
}

// NewChunk creates a chunk from a type code and payload. The payload
// is copied and the checksum computed over the type bytes followed by
// the payload bytes.
func NewChunk(t ChunkType, data []byte) *Chunk {
	return &Chunk{
		chunkType: t,
		data:      append([]byte(nil), data...),
		crc:       checksum(t, data),
	}
}

// ParseChunk reads one chunk from the front of data. On success it
// returns the chunk and the offset just past the trailing checksum, so
// a caller can continue with the next chunk. The whole record must be
// present and the stored checksum must match; anything else fails with
// ErrMalformedChunk.
func ParseChunk(data []byte) (*Chunk, int, error) {
	if len(data) < chunkHeaderSize+chunkCRCSize {
		return nil, 0, fmt.Errorf("%w: %d bytes is shorter than an empty chunk", ErrMalformedChunk, len(data))
	}

	length := binary.BigEndian.Uint32(data[0:4])
	if length > MaxChunkLength {
		return nil, 0, fmt.Errorf("%w: declared length %d exceeds maximum %d", ErrMalformedChunk, length, uint32(MaxChunkLength))
	}
	if avail := len(data) - chunkHeaderSize - chunkCRCSize; int64(avail) < int64(length) {
		return nil, 0, fmt.Errorf("%w: declared length %d exceeds %d available bytes", ErrMalformedChunk, length, len(data))
	}

	var t ChunkType
	copy(t[:], data[4:8])

	end := chunkHeaderSize + int(length) + chunkCRCSize
	payload := data[chunkHeaderSize : chunkHeaderSize+int(length)]
	stored := binary.BigEndian.Uint32(data[end-chunkCRCSize : end])

	if computed := checksum(t, payload); stored != computed {
		return nil, 0, fmt.Errorf("%w: checksum mismatch for %s: stored %d, computed %d", ErrMalformedChunk, t, stored, computed)
	}

	return &Chunk{
		chunkType: t,
		data:      append([]byte(nil), payload...),
		crc:       stored,
	}, end, nil
}

// Type returns the chunk type code
func (c *Chunk) Type() ChunkType {
	return c.chunkType
}

// Length returns the payload length in bytes
func (c *Chunk) Length() int {
	return len(c.data)
}

// Data returns a copy of the payload
func (c *Chunk) Data() []byte {
	return append([]byte(nil), c.data...)
}

// CRC returns the stored checksum
func (c *Chunk) CRC() uint32 {
	return c.crc
}

// Text returns the payload decoded as UTF-8
func (c *Chunk) Text() (string, error) {
	if !utf8.Valid(c.data) {
		return "", fmt.Errorf("%w: %s payload is not valid UTF-8", ErrInvalidEncoding, c.chunkType)
	}
	return string(c.data), nil
}

// Bytes serializes the chunk to its wire form: big-endian length, type
// code, payload, big-endian checksum. ParseChunk inverts it exactly.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, 0, chunkHeaderSize+len(c.data)+chunkCRCSize)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.data)))
	buf = append(buf, c.chunkType[:]...)
	buf = append(buf, c.data...)
	buf = binary.BigEndian.AppendUint32(buf, c.crc)
	return buf
}

// String describes the chunk for logs and error messages
func (c *Chunk) String() string {
	return fmt.Sprintf("%s (%d bytes, crc %d)", c.chunkType, len(c.data), c.crc)
}

// checksum computes the CRC-32 over the type bytes followed by the
// payload bytes, using the same polynomial the image format prescribes
func checksum(t ChunkType, data []byte) uint32 {
	h := crc32.NewIEEE()
	h.Write(t[:])
	h.Write(data)
	return h.Sum32()
}
