package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kbinani/screenshot"

	core "github.com/pngstash/pngstash/internal/pngstash"
	"github.com/pngstash/pngstash/pkg/pngstash"
)

// Config holds capture configuration
type Config struct {
	ServerURL string
	Display   int
	ChunkType string
	Message   string
	Output    string
	UserID    string
	Post      bool
}

func main() {
	cfg, err := core.LoadConfig()
	if err != nil {
		cfg = core.DefaultConfig()
	}

	// Parse flags
	serverURL := flag.String("server", getEnv("PNGSTASH_URL", "http://localhost:8432"), "pngstashd API URL")
	display := flag.Int("display", 0, "Display number to capture")
	chunkType := flag.String("type", cfg.DefaultChunkType, "Chunk type for the hidden payload")
	message := flag.String("m", "", "Message to hide in the capture")
	output := flag.String("o", "", "Output file (default capture-<timestamp>.png)")
	userID := flag.String("user", getEnv("USER", "unknown"), "User identifier stamped into the capture")
	post := flag.Bool("post", false, "Post the capture to pngstashd instead of saving locally")
	interval := flag.Duration("interval", 0, "Repeat captures at this interval (0 captures once)")
	flag.Parse()

	config := Config{
		ServerURL: *serverURL,
		Display:   *display,
		ChunkType: *chunkType,
		Message:   *message,
		Output:    *output,
		UserID:    *userID,
		Post:      *post,
	}

	// Check display count
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		log.Fatal("No active displays found")
	}
	if config.Display >= n {
		log.Fatalf("Display %d not available (only %d displays)", config.Display, n)
	}

	if *interval <= 0 {
		if err := captureOnce(config); err != nil {
			log.Fatalf("Capture error: %v", err)
		}
		return
	}

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	log.Printf("pngstash-capture started (interval=%v, user=%s, display=%d)", *interval, config.UserID, config.Display)

	// Capture immediately on start
	if err := captureOnce(config); err != nil {
		log.Printf("Initial capture error: %v", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := captureOnce(config); err != nil {
				log.Printf("Capture error: %v", err)
			}
		case <-stop:
			log.Println("Shutting down...")
			return
		}
	}
}

func captureOnce(config Config) error {
	// Capture screenshot
	bounds := screenshot.GetDisplayBounds(config.Display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	// Encode to PNG
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	message := config.Message
	if message == "" {
		message = fmt.Sprintf("captured by %s at %s", config.UserID, time.Now().Format(time.RFC3339))
	}

	if config.Post {
		return postCapture(config, message, buf.Bytes(), bounds.Dx(), bounds.Dy())
	}

	// Hide the message locally
	carrier, err := pngstash.Load(buf.Bytes())
	if err != nil {
		return fmt.Errorf("parsing capture: %w", err)
	}
	if err := carrier.Encode(config.ChunkType, message); err != nil {
		return fmt.Errorf("hiding message: %w", err)
	}

	dest := config.Output
	if dest == "" {
		dest = fmt.Sprintf("capture-%d.png", time.Now().Unix())
	}
	if err := carrier.SaveTo(dest); err != nil {
		return fmt.Errorf("saving capture: %w", err)
	}

	log.Printf("Captured: %s (%dx%d, %s, payload in %s)",
		dest, bounds.Dx(), bounds.Dy(), humanize.Bytes(uint64(len(carrier.Bytes()))), config.ChunkType)
	return nil
}

// postCapture uploads the raw capture and lets pngstashd encode and store it
func postCapture(config Config, message string, data []byte, width, height int) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	name := fmt.Sprintf("capture-%d.png", time.Now().Unix())
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing capture: %w", err)
	}
	if err := mw.WriteField("chunk_type", config.ChunkType); err != nil {
		return fmt.Errorf("writing chunk type: %w", err)
	}
	if err := mw.WriteField("message", message); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing form: %w", err)
	}

	resp, err := http.Post(config.ServerURL+"/api/encode", mw.FormDataContentType(), &body)
	if err != nil {
		return fmt.Errorf("post failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		return fmt.Errorf("pngstashd returned %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	log.Printf("Stored: %s (%dx%d, %s)", result.ID, width, height, humanize.Bytes(uint64(len(data))))
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
