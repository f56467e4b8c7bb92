package pngstash

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pngstash/pngstash/internal/pngstash/png"
)

func mustChunk(t *testing.T, typ string, data []byte) *png.Chunk {
	t.Helper()
	ct, err := png.ParseChunkType(typ)
	if err != nil {
		t.Fatalf("parsing chunk type %q: %v", typ, err)
	}
	return png.NewChunk(ct, data)
}

// writeFixture writes a minimal valid carrier PNG into a temp directory
func writeFixture(t *testing.T) string {
	t.Helper()
	f := png.NewFile(
		mustChunk(t, "IHDR", []byte("\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")),
		mustChunk(t, "IDAT", []byte("not real image data")),
		mustChunk(t, "IEND", nil),
	)
	path := filepath.Join(t.TempDir(), "carrier.png")
	if err := os.WriteFile(path, f.Bytes(), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestCarrierRoundTrip(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening carrier: %v", err)
	}
	if c.Path() != path {
		t.Errorf("got path %q, want %q", c.Path(), path)
	}
	if err := c.Encode("ruSt", "meet at dawn"); err != nil {
		t.Fatalf("encoding message: %v", err)
	}

	out := filepath.Join(filepath.Dir(path), "stashed.png")
	if err := c.SaveTo(out); err != nil {
		t.Fatalf("saving carrier: %v", err)
	}

	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopening carrier: %v", err)
	}
	if got := reopened.ChunkCount(); got != 4 {
		t.Fatalf("got %d chunks, want 4", got)
	}
	// Payload chunks land before IEND
	if got := reopened.Chunks()[2].Type; got != "ruSt" {
		t.Errorf("got chunk type %q at index 2, want ruSt", got)
	}

	msg, err := reopened.Decode("ruSt")
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if msg != "meet at dawn" {
		t.Errorf("got message %q, want %q", msg, "meet at dawn")
	}
}

func TestCarrierSaveInPlace(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening carrier: %v", err)
	}
	if err := c.Encode("stSh", "in place"); err != nil {
		t.Fatalf("encoding message: %v", err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("saving carrier: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopening carrier: %v", err)
	}
	msg, err := reopened.Decode("stSh")
	if err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if msg != "in place" {
		t.Errorf("got message %q, want %q", msg, "in place")
	}
}

func TestCarrierSaveWithoutPath(t *testing.T) {
	f := png.NewFile(mustChunk(t, "IEND", nil))
	c, err := Load(f.Bytes())
	if err != nil {
		t.Fatalf("loading carrier: %v", err)
	}
	if err := c.Save(); err == nil {
		t.Fatal("expected error saving carrier with no origin path")
	}
}

func TestCarrierRemove(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening carrier: %v", err)
	}
	if err := c.Encode("ruSt", "short lived"); err != nil {
		t.Fatalf("encoding message: %v", err)
	}

	payload, err := c.Remove("ruSt")
	if err != nil {
		t.Fatalf("removing chunk: %v", err)
	}
	if string(payload) != "short lived" {
		t.Errorf("got removed payload %q, want %q", payload, "short lived")
	}

	if _, err := c.Decode("ruSt"); !errors.Is(err, png.ErrChunkNotFound) {
		t.Errorf("got %v after removal, want ErrChunkNotFound", err)
	}
	if _, err := c.Remove("ruSt"); !errors.Is(err, png.ErrChunkNotFound) {
		t.Errorf("got %v removing twice, want ErrChunkNotFound", err)
	}
}

func TestCarrierScrub(t *testing.T) {
	f := png.NewFile(
		mustChunk(t, "IHDR", []byte("\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")),
		mustChunk(t, "tEXt", []byte("Comment\x00public metadata")),
		mustChunk(t, "ruSt", []byte("first secret")),
		mustChunk(t, "IDAT", []byte("not real image data")),
		mustChunk(t, "stSh", []byte("second secret")),
		mustChunk(t, "IEND", nil),
	)
	c, err := Load(f.Bytes())
	if err != nil {
		t.Fatalf("loading carrier: %v", err)
	}

	removed := c.Scrub()
	want := []string{"ruSt", "stSh"}
	if len(removed) != len(want) {
		t.Fatalf("got %d scrubbed chunks %v, want %v", len(removed), removed, want)
	}
	for i := range want {
		if removed[i] != want[i] {
			t.Errorf("got scrubbed type %q at %d, want %q", removed[i], i, want[i])
		}
	}
	// Public metadata survives a scrub
	if got := c.ChunkCount(); got != 4 {
		t.Errorf("got %d chunks after scrub, want 4", got)
	}
	if _, err := c.Decode("tEXt"); err != nil {
		t.Errorf("tEXt chunk lost in scrub: %v", err)
	}
}

func TestCarrierChunks(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening carrier: %v", err)
	}
	if err := c.Encode("ruSt", "hidden"); err != nil {
		t.Fatalf("encoding message: %v", err)
	}

	infos := c.Chunks()
	if len(infos) != 4 {
		t.Fatalf("got %d chunk infos, want 4", len(infos))
	}

	ihdr := infos[0]
	if ihdr.Type != "IHDR" || !ihdr.Critical || !ihdr.Public || ihdr.Hidden {
		t.Errorf("unexpected IHDR info: %+v", ihdr)
	}
	if ihdr.Length != 13 {
		t.Errorf("got IHDR length %d, want 13", ihdr.Length)
	}

	secret := infos[2]
	if secret.Type != "ruSt" {
		t.Fatalf("got type %q at index 2, want ruSt", secret.Type)
	}
	if secret.Critical || secret.Public || !secret.SafeToCopy || !secret.Valid || !secret.Hidden {
		t.Errorf("unexpected hidden chunk info: %+v", secret)
	}
	if secret.CRC == 0 {
		t.Error("expected non-zero CRC in chunk info")
	}
}

func TestOpenErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Open(filepath.Join(t.TempDir(), "absent.png")); err == nil {
			t.Fatal("expected error opening missing file")
		}
	})

	t.Run("not a png", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plain.txt")
		if err := os.WriteFile(path, []byte("just some text"), 0644); err != nil {
			t.Fatalf("writing file: %v", err)
		}
		_, err := Open(path)
		if !errors.Is(err, png.ErrInvalidSignature) {
			t.Errorf("got %v, want ErrInvalidSignature", err)
		}
	})
}

func TestOpenReaderAndWriteTo(t *testing.T) {
	f := png.NewFile(
		mustChunk(t, "IHDR", []byte("\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")),
		mustChunk(t, "IEND", nil),
	)
	data := f.Bytes()

	c, err := OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("opening reader: %v", err)
	}
	if c.Path() != "" {
		t.Errorf("got path %q for stream carrier, want empty", c.Path())
	}

	var buf bytes.Buffer
	n, err := c.WriteTo(&buf)
	if err != nil {
		t.Fatalf("writing carrier: %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("got %d bytes written, want %d", n, len(data))
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("written bytes differ from source")
	}
	if !bytes.Equal(c.Bytes(), data) {
		t.Error("serialized bytes differ from source")
	}
}

func TestEncodeInvalidType(t *testing.T) {
	path := writeFixture(t)

	c, err := Open(path)
	if err != nil {
		t.Fatalf("opening carrier: %v", err)
	}
	if err := c.Encode("Ru1t", "nope"); !errors.Is(err, png.ErrInvalidChunkType) {
		t.Errorf("got %v, want ErrInvalidChunkType", err)
	}
	if err := c.Encode("toolong", "nope"); !errors.Is(err, png.ErrInvalidChunkType) {
		t.Errorf("got %v, want ErrInvalidChunkType", err)
	}
}
