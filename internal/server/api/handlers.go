package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/pngstash/pngstash/internal/pngstash/png"
	"github.com/pngstash/pngstash/internal/server/store"
	"github.com/pngstash/pngstash/pkg/pngstash"
)

// maxUploadBytes caps the in-memory size of a multipart upload
const maxUploadBytes = 32 << 20

// Server holds the HTTP server dependencies
type Server struct {
	store       *store.Store
	defaultType string
}

// New creates a new API server
func New(st *store.Store, defaultType string) *Server {
	return &Server{store: st, defaultType: defaultType}
}

// readUpload extracts the uploaded carrier PNG from a multipart form
func (s *Server) readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, "", fmt.Errorf("parsing multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("reading file field: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("reading upload: %w", err)
	}
	return data, header.Filename, nil
}

// hiddenCount counts the hidden payload chunks in a carrier
func hiddenCount(c *pngstash.Carrier) int {
	n := 0
	for _, info := range c.Chunks() {
		if info.Hidden {
			n++
		}
	}
	return n
}

// EncodeResponse is the response for encoding a message into a carrier
type EncodeResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ChunkType   string    `json:"chunk_type"`
	Size        int64     `json:"size"`
	HumanSize   string    `json:"human_size"`
	ChunkCount  int       `json:"chunk_count"`
	HiddenCount int       `json:"hidden_count"`
	Created     time.Time `json:"created"`
}

// Encode handles POST /api/encode
// Hides the message form field in the uploaded PNG and stores the result
func (s *Server) Encode(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message := r.FormValue("message")
	if message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	chunkType := r.FormValue("chunk_type")
	if chunkType == "" {
		chunkType = s.defaultType
	}

	carrier, err := pngstash.Load(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := carrier.Encode(chunkType, message); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	encoded := carrier.Bytes()
	art, err := s.store.Put(r.Context(), name, encoded, carrier.ChunkCount(), hiddenCount(carrier))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := EncodeResponse{
		ID:          art.ID,
		Name:        art.Name,
		ChunkType:   chunkType,
		Size:        art.Size,
		HumanSize:   humanize.Bytes(uint64(art.Size)),
		ChunkCount:  art.ChunkCount,
		HiddenCount: art.HiddenCount,
		Created:     art.Created,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// DecodeResponse is the response for decoding a message from a carrier
type DecodeResponse struct {
	ChunkType string `json:"chunk_type"`
	Message   string `json:"message"`
	Length    int    `json:"length"`
}

// Decode handles POST /api/decode
// Recovers the message hidden in the uploaded PNG
func (s *Server) Decode(w http.ResponseWriter, r *http.Request) {
	data, _, err := s.readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	chunkType := r.FormValue("chunk_type")
	if chunkType == "" {
		chunkType = s.defaultType
	}

	carrier, err := pngstash.Load(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	message, err := carrier.Decode(chunkType)
	if err != nil {
		if errors.Is(err, png.ErrChunkNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DecodeResponse{
		ChunkType: chunkType,
		Message:   message,
		Length:    len(message),
	})
}

// InspectResponse is the response for inspecting a carrier
type InspectResponse struct {
	Name        string               `json:"name"`
	Size        int64                `json:"size"`
	HumanSize   string               `json:"human_size"`
	ChunkCount  int                  `json:"chunk_count"`
	HiddenCount int                  `json:"hidden_count"`
	Chunks      []pngstash.ChunkInfo `json:"chunks"`
}

// Inspect handles POST /api/inspect
// Lists every chunk in the uploaded PNG without storing anything
func (s *Server) Inspect(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	carrier, err := pngstash.Load(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := InspectResponse{
		Name:        name,
		Size:        int64(len(data)),
		HumanSize:   humanize.Bytes(uint64(len(data))),
		ChunkCount:  carrier.ChunkCount(),
		HiddenCount: hiddenCount(carrier),
		Chunks:      carrier.Chunks(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ScrubResponse is the response for scrubbing a carrier
type ScrubResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Removed      []string  `json:"removed"`
	RemovedCount int       `json:"removed_count"`
	ChunkCount   int       `json:"chunk_count"`
	Size         int64     `json:"size"`
	HumanSize    string    `json:"human_size"`
	Created      time.Time `json:"created"`
}

// Scrub handles POST /api/scrub
// Strips hidden payload chunks from the uploaded PNG and stores the result
func (s *Server) Scrub(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	carrier, err := pngstash.Load(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	removed := carrier.Scrub()
	scrubbed := carrier.Bytes()

	art, err := s.store.Put(r.Context(), name, scrubbed, carrier.ChunkCount(), 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ScrubResponse{
		ID:           art.ID,
		Name:         art.Name,
		Removed:      removed,
		RemovedCount: len(removed),
		ChunkCount:   art.ChunkCount,
		Size:         art.Size,
		HumanSize:    humanize.Bytes(uint64(art.Size)),
		Created:      art.Created,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ListArtifacts handles GET /api/artifacts
func (s *Server) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	artifacts, err := s.store.List(r.Context(), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if artifacts == nil {
		artifacts = []*store.Artifact{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"artifacts": artifacts,
		"count":     len(artifacts),
	})
}

// GetArtifact handles GET /api/artifacts/{id}
func (s *Server) GetArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	art, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(art)
}

// GetArtifactData handles GET /api/artifacts/{id}/data
// Streams the stored PNG bytes back to the client
func (s *Server) GetArtifactData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	art, err := s.store.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	data, err := s.store.Data(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Name))
	w.Write(data)
}

// DeleteArtifact handles DELETE /api/artifacts/{id}
func (s *Server) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      id,
		"deleted": true,
	})
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"artifacts": count,
	})
}

// parsePagination extracts limit and offset from query parameters
func parsePagination(r *http.Request) (limit int, offset int) {
	limit = 100 // default limit
	offset = 0

	query := r.URL.Query()
	if l := query.Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if o := query.Get("offset"); o != "" {
		fmt.Sscanf(o, "%d", &offset)
	}

	return limit, offset
}
