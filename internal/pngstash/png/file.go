package png

import (
	"fmt"
	"iter"
)

// signature is the eight byte sequence that opens every PNG stream
const signature = "\x89PNG\r\n\x1a\n"

// File is an ordered sequence of chunks bounded by the PNG signature.
// It holds whatever chunks the input carried, in input order; it does
// not require an IHDR first, an IEND last, or unique type codes.
type File struct {
	chunks []*Chunk
}

// NewFile creates a container holding the given chunks in order
func NewFile(chunks ...*Chunk) *File {
	return &File{chunks: append([]*Chunk(nil), chunks...)}
}

// Parse reads a full PNG stream: the signature followed by chunks
// back to back until the buffer is exhausted. The first bad chunk
// aborts the whole parse; the caller gets either a complete container
// or an error, never a partial one.
func Parse(data []byte) (*File, error) {
	if len(data) < len(signature) || string(data[:len(signature)]) != signature {
		return nil, ErrInvalidSignature
	}

	f := &File{}
	rest := data[len(signature):]
	for len(rest) > 0 {
		c, n, err := ParseChunk(rest)
		if err != nil {
			return nil, fmt.Errorf("parsing chunk %d: %w", len(f.chunks), err)
		}
		f.chunks = append(f.chunks, c)
		rest = rest[n:]
	}
	return f, nil
}

// Bytes serializes the container: signature, then every chunk in
// order. Parse(f.Bytes()) reproduces f byte for byte.
func (f *File) Bytes() []byte {
	size := len(signature)
	for _, c := range f.chunks {
		size += chunkHeaderSize + len(c.data) + chunkCRCSize
	}

	buf := make([]byte, 0, size)
	buf = append(buf, signature...)
	for _, c := range f.chunks {
		buf = append(buf, c.Bytes()...)
	}
	return buf
}

// InsertChunk inserts c at position i, shifting later chunks right.
// Positions run from 0 through ChunkCount inclusive; anything outside
// that range panics, the same as slice indexing.
func (f *File) InsertChunk(i int, c *Chunk) {
	if i < 0 || i > len(f.chunks) {
		panic(fmt.Sprintf("png: insert position %d out of range [0,%d]", i, len(f.chunks)))
	}
	f.chunks = append(f.chunks, nil)
	copy(f.chunks[i+1:], f.chunks[i:])
	f.chunks[i] = c
}

// AppendChunk adds c after the last chunk
func (f *File) AppendChunk(c *Chunk) {
	f.InsertChunk(len(f.chunks), c)
}

// ChunkByType returns the first chunk with the given type code, or nil
// when none matches. Absence is not an error here.
func (f *File) ChunkByType(t ChunkType) *Chunk {
	for _, c := range f.chunks {
		if c.chunkType == t {
			return c
		}
	}
	return nil
}

// ChunksByType returns every chunk with the given type code, in
// container order
func (f *File) ChunksByType(t ChunkType) []*Chunk {
	var out []*Chunk
	for _, c := range f.chunks {
		if c.chunkType == t {
			out = append(out, c)
		}
	}
	return out
}

// RemoveChunk removes the first chunk with the given type code and
// returns it. The remaining chunks keep their order.
func (f *File) RemoveChunk(t ChunkType) (*Chunk, error) {
	for i, c := range f.chunks {
		if c.chunkType == t {
			f.chunks = append(f.chunks[:i], f.chunks[i+1:]...)
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrChunkNotFound, t)
}

// Chunks returns the chunks in container order. The slice is a copy;
// the chunks themselves are immutable and shared.
func (f *File) Chunks() []*Chunk {
	return append([]*Chunk(nil), f.chunks...)
}

// ChunkCount returns the number of chunks in the container
func (f *File) ChunkCount() int {
	return len(f.chunks)
}

// ChunkTypes returns an iterator over the type codes in container
// order. Each range over the sequence walks the current state, so the
// iterator stays valid across inserts and removes.
func (f *File) ChunkTypes() iter.Seq[ChunkType] {
	return func(yield func(ChunkType) bool) {
		for _, c := range f.chunks {
			if !yield(c.chunkType) {
				return
			}
		}
	}
}
