package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

const (
	testMessage = "This is where your secret message will be!"
	testCRC     = 2882656334
)

// buildChunkBytes assembles a raw chunk record without going through
// Chunk, so tests control every field independently.
func buildChunkBytes(t *testing.T, length uint32, typ string, data []byte, crc uint32) []byte {
	t.Helper()

	buf := make([]byte, 0, 12+len(data))
	buf = binary.BigEndian.AppendUint32(buf, length)
	buf = append(buf, typ...)
	buf = append(buf, data...)
	buf = binary.BigEndian.AppendUint32(buf, crc)
	return buf
}

func TestNewChunk(t *testing.T) {
	typ, err := ParseChunkType("RuSt")
	if err != nil {
		t.Fatalf("parsing type: %v", err)
	}

	c := NewChunk(typ, []byte(testMessage))

	if c.Length() != len(testMessage) {
		t.Errorf("expected length %d, got %d", len(testMessage), c.Length())
	}
	if c.Type() != typ {
		t.Errorf("expected type RuSt, got %s", c.Type())
	}
	if c.CRC() != testCRC {
		t.Errorf("expected crc %d, got %d", uint32(testCRC), c.CRC())
	}

	text, err := c.Text()
	if err != nil {
		t.Fatalf("decoding text: %v", err)
	}
	if text != testMessage {
		t.Errorf("expected %q, got %q", testMessage, text)
	}
}

func TestParseChunk(t *testing.T) {
	data := buildChunkBytes(t, uint32(len(testMessage)), "RuSt", []byte(testMessage), testCRC)

	c, n, err := ParseChunk(data)
	if err != nil {
		t.Fatalf("parsing chunk: %v", err)
	}

	if n != len(data) {
		t.Errorf("expected offset %d, got %d", len(data), n)
	}
	if c.Type().String() != "RuSt" {
		t.Errorf("expected type RuSt, got %s", c.Type())
	}
	if c.Length() != len(testMessage) {
		t.Errorf("expected length %d, got %d", len(testMessage), c.Length())
	}
	if c.CRC() != testCRC {
		t.Errorf("expected crc %d, got %d", uint32(testCRC), c.CRC())
	}
}

func TestParseChunkWithTrailingBytes(t *testing.T) {
	record := buildChunkBytes(t, uint32(len(testMessage)), "RuSt", []byte(testMessage), testCRC)
	data := append(append([]byte(nil), record...), 0xDE, 0xAD, 0xBE, 0xEF)

	_, n, err := ParseChunk(data)
	if err != nil {
		t.Fatalf("parsing chunk: %v", err)
	}
	if n != len(record) {
		t.Errorf("expected offset %d past the checksum, got %d", len(record), n)
	}
}

func TestParseChunkInvalidCRC(t *testing.T) {
	data := buildChunkBytes(t, uint32(len(testMessage)), "RuSt", []byte(testMessage), testCRC-1)

	_, _, err := ParseChunk(data)
	if !errors.Is(err, ErrMalformedChunk) {
		t.Fatalf("expected ErrMalformedChunk, got %v", err)
	}
}

func TestParseChunkMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty buffer",
			data: nil,
		},
		{
			name: "shorter than an empty chunk",
			data: []byte{0, 0, 0, 0, 'R', 'u', 'S', 't'},
		},
		{
			name: "declared length exceeds buffer",
			data: buildChunkBytes(t, 100, "RuSt", []byte("short"), 0),
		},
		{
			name: "declared length exceeds maximum",
			data: buildChunkBytes(t, 0xFFFFFFFF, "RuSt", []byte("short"), 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseChunk(tt.data)
			if !errors.Is(err, ErrMalformedChunk) {
				t.Errorf("expected ErrMalformedChunk, got %v", err)
			}
		})
	}
}

func TestParseChunkBitFlipSensitivity(t *testing.T) {
	good := buildChunkBytes(t, uint32(len(testMessage)), "RuSt", []byte(testMessage), testCRC)

	// Flipping any single bit of the length, type, or payload must
	// fail the parse. A length flip changes the framing, the others
	// change the checksum input.
	for _, offset := range []int{0, 4, 8, len(good) - 5} {
		flipped := append([]byte(nil), good...)
		flipped[offset] ^= 0x01

		if _, _, err := ParseChunk(flipped); !errors.Is(err, ErrMalformedChunk) {
			t.Errorf("bit flip at offset %d: expected ErrMalformedChunk, got %v", offset, err)
		}
	}
}

func TestChunkBytesRoundTrip(t *testing.T) {
	typ, err := ParseChunkType("ruSt")
	if err != nil {
		t.Fatalf("parsing type: %v", err)
	}

	original := NewChunk(typ, []byte("hello"))
	wire := original.Bytes()

	parsed, n, err := ParseChunk(wire)
	if err != nil {
		t.Fatalf("parsing serialized chunk: %v", err)
	}
	if n != len(wire) {
		t.Errorf("expected offset %d, got %d", len(wire), n)
	}
	if parsed.Type() != original.Type() {
		t.Errorf("expected type %s, got %s", original.Type(), parsed.Type())
	}
	if parsed.CRC() != original.CRC() {
		t.Errorf("expected crc %d, got %d", original.CRC(), parsed.CRC())
	}
	if !bytes.Equal(parsed.Data(), original.Data()) {
		t.Error("payload changed across the round trip")
	}
	if !bytes.Equal(parsed.Bytes(), wire) {
		t.Error("serialization changed across the round trip")
	}
}

func TestChunkEmptyPayload(t *testing.T) {
	c := NewChunk(TypeIEND, nil)

	if c.Length() != 0 {
		t.Errorf("expected length 0, got %d", c.Length())
	}

	wire := c.Bytes()
	if len(wire) != 12 {
		t.Errorf("expected 12 byte record, got %d", len(wire))
	}

	parsed, _, err := ParseChunk(wire)
	if err != nil {
		t.Fatalf("parsing empty chunk: %v", err)
	}
	if parsed.CRC() != c.CRC() {
		t.Errorf("expected crc %d, got %d", c.CRC(), parsed.CRC())
	}
}

func TestChunkTextInvalidEncoding(t *testing.T) {
	typ, err := ParseChunkType("ruSt")
	if err != nil {
		t.Fatalf("parsing type: %v", err)
	}

	c := NewChunk(typ, []byte{0xFF, 0xFE, 0x80})

	if _, err := c.Text(); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestChunkImmutability(t *testing.T) {
	payload := []byte("hello")
	typ, err := ParseChunkType("ruSt")
	if err != nil {
		t.Fatalf("parsing type: %v", err)
	}

	c := NewChunk(typ, payload)

	// Mutating the caller's slice after construction must not reach
	// the chunk, and neither must mutating an accessor's copy.
	payload[0] = 'X'
	got := c.Data()
	got[1] = 'Y'

	text, err := c.Text()
	if err != nil {
		t.Fatalf("decoding text: %v", err)
	}
	if text != "hello" {
		t.Errorf("chunk payload mutated to %q", text)
	}
}
