// Package stego layers the payload hiding policy over the chunk
// container. The container itself is position-agnostic; this package
// decides where payload chunks go and which chunks count as hidden.
package stego

import (
	"fmt"

	"github.com/pngstash/pngstash/internal/pngstash/png"
)

// Embed wraps the payload in a chunk of the given type and inserts it
// ahead of the first IEND chunk, so standard decoders still see a
// terminated stream. A file without an IEND gets the chunk appended.
// Returns the inserted chunk.
func Embed(f *png.File, t png.ChunkType, payload []byte) *png.Chunk {
	c := png.NewChunk(t, payload)
	f.InsertChunk(embedPosition(f), c)
	return c
}

// embedPosition finds the index of the first IEND chunk, or the end of
// the container when there is none
func embedPosition(f *png.File) int {
	for i, c := range f.Chunks() {
		if c.Type() == png.TypeIEND {
			return i
		}
	}
	return f.ChunkCount()
}

// Extract returns the text payload of the first chunk with the given
// type code
func Extract(f *png.File, t png.ChunkType) (string, error) {
	c := f.ChunkByType(t)
	if c == nil {
		return "", fmt.Errorf("%w: %s", png.ErrChunkNotFound, t)
	}
	return c.Text()
}

// IsHiddenPayload reports whether a chunk type marks a likely hidden
// payload: ancillary, private, and otherwise conforming. Critical and
// public chunks are never treated as payloads, and codes with the
// reserved bit set are left alone as already-broken.
func IsHiddenPayload(t png.ChunkType) bool {
	return !t.IsCritical() && !t.IsPublic() && t.IsValid()
}

// Scrub removes every hidden payload chunk from the file and returns
// the removed type codes in container order. Everything else,
// including public metadata like tEXt, is preserved.
func Scrub(f *png.File) []png.ChunkType {
	var removed []png.ChunkType
	for _, c := range f.Chunks() {
		t := c.Type()
		if !IsHiddenPayload(t) {
			continue
		}
		if _, err := f.RemoveChunk(t); err == nil {
			removed = append(removed, t)
		}
	}
	return removed
}
