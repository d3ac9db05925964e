// ABOUTME: Entry point for the voicecheck client
// ABOUTME: Sends an audio file or a generated tone to a detection server and prints the result
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voicedetect/voicedetect-go/internal/client"
	"github.com/voicedetect/voicedetect-go/internal/discovery"
	"github.com/voicedetect/voicedetect-go/internal/logging"
	"github.com/voicedetect/voicedetect-go/internal/protocol"
	"github.com/voicedetect/voicedetect-go/pkg/audio"
	"github.com/voicedetect/voicedetect-go/pkg/audio/encode"
	"go.uber.org/zap"
)

var (
	serverAddr = flag.String("server", "", "Server address host:port (default: discover via mDNS)")
	file       = flag.String("file", "", "Audio file to classify (MP3, WAV, FLAC, Opus)")
	tone       = flag.Float64("tone", 0, "Generate a sine tone at this frequency instead of reading a file")
	toneLength = flag.Duration("tone-length", 2*time.Second, "Length of the generated tone")
	toneFormat = flag.String("tone-format", audio.FormatWAV, "Container for the generated tone (wav, opus)")
	apiKey     = flag.String("key", os.Getenv("VOICEDETECT_API_KEY"), "API key")
	language   = flag.String("language", "English", "Language hint")
	format     = flag.String("format", "", "Audio format hint (default: file extension)")
	useWS      = flag.Bool("ws", false, "Use the WebSocket endpoint")
	timeout    = flag.Duration("timeout", client.DefaultTimeout, "Request timeout")
	debug      = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Format: logging.FormatConsole})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "voicecheck: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	data, hint, err := loadAudio()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	addr := *serverAddr
	if addr == "" {
		disc := discovery.NewManager(discovery.Config{Logger: logger})
		server, err := disc.Lookup(ctx)
		if err != nil {
			return fmt.Errorf("no server found: %w", err)
		}
		addr = server.Addr()
		logger.Info("discovered server", zap.String("name", server.Name), zap.String("addr", addr))
	}

	c := client.NewClient(client.Config{
		ServerAddr: addr,
		APIKey:     *apiKey,
		Timeout:    *timeout,
		Logger:     logger,
	})

	req := protocol.DetectRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(data),
		Language:    *language,
		AudioFormat: hint,
	}

	detect := c.Detect
	if *useWS {
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Close()
		detect = c.DetectWS
	}

	result, err := detect(ctx, req)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// loadAudio returns the encoded clip and its format hint
func loadAudio() ([]byte, string, error) {
	if *tone > 0 {
		var enc encode.Encoder
		var err error
		switch *toneFormat {
		case audio.FormatWAV:
			enc, err = encode.NewWAV(16)
		case audio.FormatOpus:
			enc, err = encode.NewOpus(1)
		default:
			err = fmt.Errorf("unsupported tone format: %s", *toneFormat)
		}
		if err != nil {
			return nil, "", err
		}
		data, err := enc.Encode(audio.Tone(*tone, 16000, *toneLength, 0.5))
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode tone: %w", err)
		}
		return data, *toneFormat, nil
	}

	if *file == "" {
		return nil, "", fmt.Errorf("either -file or -tone is required")
	}
	data, err := os.ReadFile(*file)
	if err != nil {
		return nil, "", err
	}
	hint := *format
	if hint == "" {
		hint = strings.TrimPrefix(strings.ToLower(filepath.Ext(*file)), ".")
	}
	return data, hint, nil
}
