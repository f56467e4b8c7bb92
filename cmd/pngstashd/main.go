package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	core "github.com/pngstash/pngstash/internal/pngstash"
	"github.com/pngstash/pngstash/internal/server/api"
	"github.com/pngstash/pngstash/internal/server/store"
)

// VersionResponse represents version information
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

func main() {
	// Flag defaults come from the config file, overridable by environment
	cfg, err := core.LoadConfig()
	if err != nil {
		cfg = core.DefaultConfig()
	}

	addr := flag.String("addr", getEnv("PNGSTASH_ADDR", cfg.ListenAddr), "HTTP service address")
	dataDir := flag.String("data", getEnv("PNGSTASH_DATA", cfg.DataDir), "Data directory for stored artifacts")
	chunkType := flag.String("type", cfg.DefaultChunkType, "Default chunk type for encoding")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Println(core.BuildInfo())
		os.Exit(0)
	}

	if *dataDir == "" {
		log.Fatal("Data directory required")
	}

	// Initialize artifact store
	ctx := context.Background()
	st, err := store.New(ctx, *dataDir, filepath.Join(*dataDir, "artifacts.db"))
	if err != nil {
		log.Fatalf("Error opening artifact store: %v", err)
	}
	defer st.Close()

	log.Printf("Artifact store ready in %s", *dataDir)

	// Initialize API server
	apiServer := api.New(st, *chunkType)

	// Setup HTTP router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Compress(5))

	// Routes
	r.Get("/health", apiServer.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", handleVersion)
		r.Post("/encode", apiServer.Encode)
		r.Post("/decode", apiServer.Decode)
		r.Post("/inspect", apiServer.Inspect)
		r.Post("/scrub", apiServer.Scrub)
		r.Get("/artifacts", apiServer.ListArtifacts)
		r.Get("/artifacts/{id}", apiServer.GetArtifact)
		r.Get("/artifacts/{id}/data", apiServer.GetArtifactData)
		r.Delete("/artifacts/{id}", apiServer.DeleteArtifact)
	})

	// HTTP server
	srv := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting pngstashd on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// handleVersion returns version information
func handleVersion(w http.ResponseWriter, r *http.Request) {
	info := strings.Split(core.BuildInfo(), "\n")
	version := strings.TrimPrefix(info[0], "Version: ")
	commit := strings.TrimPrefix(info[1], "Commit: ")
	date := strings.TrimPrefix(info[2], "Build Date: ")

	response := VersionResponse{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
		return
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
