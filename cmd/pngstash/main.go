package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	core "github.com/pngstash/pngstash/internal/pngstash"
	"github.com/pngstash/pngstash/pkg/pngstash"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func main() {
	// Parse command line arguments
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Handle commands
	cmd := args[0]
	switch cmd {
	case "encode":
		if len(args) < 3 {
			log.Fatal("Usage: pngstash encode <file> <type> [message] [output]")
		}
		message := ""
		if len(args) > 3 {
			message = args[3]
		}
		output := ""
		if len(args) > 4 {
			output = args[4]
		}
		handleEncode(args[1], args[2], message, output)

	case "decode":
		if len(args) < 3 {
			log.Fatal("Usage: pngstash decode <file> <type>")
		}
		handleDecode(args[1], args[2])

	case "remove":
		if len(args) < 3 {
			log.Fatal("Usage: pngstash remove <file> <type> [output]")
		}
		output := ""
		if len(args) > 3 {
			output = args[3]
		}
		handleRemove(args[1], args[2], output)

	case "print":
		if len(args) < 2 {
			log.Fatal("Usage: pngstash print <file>")
		}
		handlePrint(args[1])

	case "scrub":
		if len(args) < 2 {
			log.Fatal("Usage: pngstash scrub <file> [output]")
		}
		output := ""
		if len(args) > 2 {
			output = args[2]
		}
		handleScrub(args[1], output)

	case "version":
		fmt.Println(core.BuildInfo())

	default:
		log.Fatalf("Unknown command: %s", cmd)
	}
}

func printUsage() {
	fmt.Println("Usage: pngstash <command> [args...]")
	fmt.Println("\nCommands:")
	fmt.Println("  encode <file> <type> [message] [output]  Hide a message in a PNG")
	fmt.Println("  decode <file> <type>                     Recover a hidden message")
	fmt.Println("  remove <file> <type> [output]            Remove a chunk and print its payload")
	fmt.Println("  print <file>                             List every chunk")
	fmt.Println("  scrub <file> [output]                    Strip all hidden payloads")
	fmt.Println("  version                                  Show version information")
}

// promptMessage reads the message without echoing it to the terminal
func promptMessage() string {
	fmt.Fprint(os.Stderr, promptStyle.Render("Message: "))
	defer fmt.Fprintln(os.Stderr)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Piped input
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			return strings.TrimSpace(scanner.Text())
		}
		return ""
	}

	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("Error reading message: %v", err)
	}
	return string(secret)
}

func handleEncode(path, chunkType, message, output string) {
	carrier, err := pngstash.Open(path)
	if err != nil {
		log.Fatalf("Error opening carrier: %v", err)
	}

	if message == "" {
		message = promptMessage()
	}
	if message == "" {
		log.Fatal("Error: empty message")
	}

	if err := carrier.Encode(chunkType, message); err != nil {
		log.Fatalf("Error encoding message: %v", err)
	}

	dest := output
	if dest == "" {
		dest = path
	}
	if err := carrier.SaveTo(dest); err != nil {
		log.Fatalf("Error saving carrier: %v", err)
	}

	fmt.Printf("Hidden %s in %s chunk of %s\n", humanize.Bytes(uint64(len(message))), chunkType, filepath.Base(dest))
}

func handleDecode(path, chunkType string) {
	carrier, err := pngstash.Open(path)
	if err != nil {
		log.Fatalf("Error opening carrier: %v", err)
	}

	message, err := carrier.Decode(chunkType)
	if err != nil {
		log.Fatalf("Error decoding message: %v", err)
	}

	fmt.Println(message)
}

func handleRemove(path, chunkType, output string) {
	carrier, err := pngstash.Open(path)
	if err != nil {
		log.Fatalf("Error opening carrier: %v", err)
	}

	payload, err := carrier.Remove(chunkType)
	if err != nil {
		log.Fatalf("Error removing chunk: %v", err)
	}

	dest := output
	if dest == "" {
		dest = path
	}
	if err := carrier.SaveTo(dest); err != nil {
		log.Fatalf("Error saving carrier: %v", err)
	}

	fmt.Printf("Removed %s chunk from %s\n", chunkType, filepath.Base(dest))
	if len(payload) > 0 && utf8.Valid(payload) {
		fmt.Printf("Payload: %s\n", payload)
	} else {
		fmt.Printf("Payload: %s of binary data\n", humanize.Bytes(uint64(len(payload))))
	}
}

func handlePrint(path string) {
	carrier, err := pngstash.Open(path)
	if err != nil {
		log.Fatalf("Error opening carrier: %v", err)
	}

	infos := carrier.Chunks()
	total := len(carrier.Bytes())

	fmt.Println(titleStyle.Render(filepath.Base(path)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%s, %d chunks", humanize.Bytes(uint64(total)), len(infos))))
	fmt.Println()

	for i, info := range infos {
		typeCol := info.Type
		switch {
		case info.Hidden:
			typeCol = errorStyle.Render(info.Type)
		case info.Critical:
			typeCol = titleStyle.Render(info.Type)
		}
		fmt.Printf("  %2d  %s  %10s  crc %08x  %s\n",
			i, typeCol, humanize.Bytes(uint64(info.Length)), info.CRC, dimStyle.Render(chunkFlags(info)))
	}
}

// chunkFlags summarizes chunk type properties for display
func chunkFlags(info pngstash.ChunkInfo) string {
	var flags []string
	if info.Critical {
		flags = append(flags, "critical")
	} else {
		flags = append(flags, "ancillary")
	}
	if info.Public {
		flags = append(flags, "public")
	} else {
		flags = append(flags, "private")
	}
	if info.SafeToCopy {
		flags = append(flags, "safe-to-copy")
	}
	if !info.Valid {
		flags = append(flags, "invalid")
	}
	if info.Hidden {
		flags = append(flags, "hidden")
	}
	return strings.Join(flags, " ")
}

func handleScrub(path, output string) {
	carrier, err := pngstash.Open(path)
	if err != nil {
		log.Fatalf("Error opening carrier: %v", err)
	}

	removed := carrier.Scrub()
	if len(removed) == 0 {
		fmt.Println("No hidden payloads found")
		return
	}

	dest := output
	if dest == "" {
		dest = path
	}
	if err := carrier.SaveTo(dest); err != nil {
		log.Fatalf("Error saving carrier: %v", err)
	}

	fmt.Printf("Removed %d hidden chunks from %s: %s\n", len(removed), filepath.Base(dest), strings.Join(removed, " "))
}
