// ABOUTME: Entry point for the voice detection server
// ABOUTME: Loads configuration, applies CLI overrides and runs the HTTP/WebSocket server
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/voicedetect/voicedetect-go/internal/config"
	"github.com/voicedetect/voicedetect-go/internal/detector"
	"github.com/voicedetect/voicedetect-go/internal/logging"
	"github.com/voicedetect/voicedetect-go/internal/server"
	"github.com/voicedetect/voicedetect-go/internal/version"
	"go.uber.org/zap"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	envFile    = flag.String("env-file", ".env", "Dotenv file loaded before VOICEDETECT_* variables")
	port       = flag.Int("port", 8000, "HTTP server port")
	name       = flag.String("name", "", "Server friendly name (default: hostname-voicedetect)")
	noMDNS     = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	useTUI     = flag.Bool("tui", false, "Show the live dashboard instead of console logs")
	mode       = flag.String("mode", "", "Classification mode: local or delegated")
	apiKey     = flag.String("api-key", "", "API key callers must present")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFile    = flag.String("log-file", "", "Also write logs to this file")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	// The dashboard owns the terminal, so logs go to a file
	if cfg.Server.UseTUI && cfg.Log.File == "" {
		cfg.Log.File = "voicedetect-server.log"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	summary := make([]zap.Field, 0, 8)
	for k, v := range cfg.Summary() {
		summary = append(summary, zap.String(k, v))
	}
	logger.Info("starting "+version.Product, append(summary, zap.String("version", version.Version))...)

	metrics := server.NewMetrics()

	deps := detector.Dependencies{Logger: logger, Observer: metrics}
	if cfg.Detector.Mode == detector.ModeDelegated {
		deps.Remote = detector.NewHTTPRemote(cfg.Remote.Endpoint, cfg.Remote.APIKey, cfg.Remote.Timeout)
	}
	svc, err := detector.New(cfg.DetectorService(), deps)
	if err != nil {
		logger.Fatal("failed to create detector", zap.Error(err))
	}

	srv := server.New(cfg, svc, metrics, logger)

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", zap.String("signal", sig.String()))
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "name":
			cfg.Server.Name = *name
		case "no-mdns":
			cfg.Server.EnableMDNS = !*noMDNS
		case "tui":
			cfg.Server.UseTUI = *useTUI
		case "mode":
			cfg.Detector.Mode = *mode
		case "api-key":
			cfg.Auth.APIKey = *apiKey
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-file":
			cfg.Log.File = *logFile
		case "debug":
			if *debug {
				cfg.Log.Level = "debug"
			}
		}
	})
}
