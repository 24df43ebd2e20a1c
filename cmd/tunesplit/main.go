package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yarango582/tunesplit-web/internal/audio"
	"github.com/yarango582/tunesplit-web/internal/config"
	"github.com/yarango582/tunesplit-web/internal/separation"
	"github.com/yarango582/tunesplit-web/internal/session"
	"github.com/yarango582/tunesplit-web/internal/store"
	"github.com/yarango582/tunesplit-web/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	client := separation.NewClient(cfg.APIBaseURL, cfg.MaxUploadBytes)
	songs := store.New()
	gate := session.NewGate(cfg.DataDir)

	engine := audio.New(
		audio.NewHTTPLoader(client.StemURL),
		audio.NewSpeaker(),
		cfg.PollInterval,
	)
	engine.Start(ctx)
	defer engine.Close()

	if err := ui.Run(ctx, cfg, engine, songs, gate, client); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}

	return nil
}
