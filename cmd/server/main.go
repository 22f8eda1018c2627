package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/logger"
	"github.com/woozymasta/safezone/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile   string        `short:"c" long:"config"         env:"CONFIG_FILE"      description:"Path to configuration file, built-in defaults if empty"`
	Addr         string        `short:"a" long:"addr"           env:"LISTEN_ADDRESS"   description:"Address to listen on"       default:"0.0.0.0"`
	Port         int           `short:"p" long:"port"           env:"LISTEN_PORT"      description:"Port to listen on"          default:"8080"`
	MaxBodyBytes int64         `long:"max-body-bytes"           env:"MAX_BODY_BYTES"   description:"Request body limit in bytes" default:"8388608"`
	Shutdown     time.Duration `long:"shutdown-timeout"         env:"SHUTDOWN_TIMEOUT" description:"Graceful shutdown timeout"  default:"10s"`
}

func main() {
	loadEnvFile()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(opts.ConfigFile); err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
	}

	srvCtx := server.NewServerContext(cfg)
	if opts.MaxBodyBytes > 0 {
		srvCtx.MaxBodyBytes = opts.MaxBodyBytes
	}

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Shutdown)
		defer cancel()

		log.Info().Msg("Shutting down web server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("config", opts.ConfigFile).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

// loadEnvFile reads ENV_FILE (or .env) into the process environment before
// flags are parsed. Variables that are already set win.
func loadEnvFile() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
		os.Exit(1)
	}
}
