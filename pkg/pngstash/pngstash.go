// Package pngstash provides a high-level interface for hiding and
// recovering payloads in PNG files
package pngstash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pngstash/pngstash/internal/pngstash/png"
	"github.com/pngstash/pngstash/internal/pngstash/stego"
)

// Carrier is a PNG file acting as a payload container
type Carrier struct {
	file *png.File
	path string
}

// Open reads and parses the PNG file at path
func Open(path string) (*Carrier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading carrier file: %w", err)
	}
	f, err := png.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return &Carrier{file: f, path: path}, nil
}

// OpenReader parses a PNG stream. The resulting carrier has no origin
// path, so Save is unavailable until SaveTo is used.
func OpenReader(r io.Reader) (*Carrier, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading carrier stream: %w", err)
	}
	return Load(data)
}

// Load parses a PNG from an in-memory buffer
func Load(data []byte) (*Carrier, error) {
	f, err := png.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Carrier{file: f}, nil
}

// Path returns the file the carrier was opened from, or "" for
// in-memory carriers
func (c *Carrier) Path() string {
	return c.path
}

// Encode hides a text message in a chunk with the given type code
func (c *Carrier) Encode(chunkType, message string) error {
	return c.EncodeData(chunkType, []byte(message))
}

// EncodeData hides a raw payload in a chunk with the given type code
func (c *Carrier) EncodeData(chunkType string, payload []byte) error {
	t, err := png.ParseChunkType(chunkType)
	if err != nil {
		return err
	}
	stego.Embed(c.file, t, payload)
	return nil
}

// Decode recovers the message hidden in the first chunk with the given
// type code
func (c *Carrier) Decode(chunkType string) (string, error) {
	t, err := png.ParseChunkType(chunkType)
	if err != nil {
		return "", err
	}
	return stego.Extract(c.file, t)
}

// Remove deletes the first chunk with the given type code and returns
// its payload
func (c *Carrier) Remove(chunkType string) ([]byte, error) {
	t, err := png.ParseChunkType(chunkType)
	if err != nil {
		return nil, err
	}
	removed, err := c.file.RemoveChunk(t)
	if err != nil {
		return nil, err
	}
	return removed.Data(), nil
}

// Scrub strips every hidden payload chunk and returns the removed type
// codes in file order
func (c *Carrier) Scrub() []string {
	removed := stego.Scrub(c.file)
	out := make([]string, len(removed))
	for i, t := range removed {
		out[i] = t.String()
	}
	return out
}

// Chunks lists a summary of every chunk in file order
func (c *Carrier) Chunks() []ChunkInfo {
	chunks := c.file.Chunks()
	out := make([]ChunkInfo, len(chunks))
	for i, ch := range chunks {
		t := ch.Type()
		out[i] = ChunkInfo{
			Type:       t.String(),
			Length:     ch.Length(),
			CRC:        ch.CRC(),
			Critical:   t.IsCritical(),
			Public:     t.IsPublic(),
			SafeToCopy: t.IsSafeToCopy(),
			Valid:      t.IsValid(),
			Hidden:     stego.IsHiddenPayload(t),
		}
	}
	return out
}

// ChunkCount returns the number of chunks in the carrier
func (c *Carrier) ChunkCount() int {
	return c.file.ChunkCount()
}

// Bytes serializes the carrier to PNG wire format
func (c *Carrier) Bytes() []byte {
	return c.file.Bytes()
}

// WriteTo writes the serialized carrier to w
func (c *Carrier) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c.file.Bytes())
	return int64(n), err
}

// Save writes the carrier back to the file it was opened from
func (c *Carrier) Save() error {
	if c.path == "" {
		return fmt.Errorf("carrier has no origin path, use SaveTo")
	}
	return c.SaveTo(c.path)
}

// SaveTo writes the carrier to path through a temp file and rename in
// the destination directory
func (c *Carrier) SaveTo(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".pngstash-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(c.file.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing carrier: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
