package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tonebot/internal/chat"
	"tonebot/internal/completion"
	"tonebot/internal/gif"
	"tonebot/internal/memory"
	"tonebot/internal/sentiment"
	"tonebot/internal/server"
	"tonebot/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat backend HTTP server",
	Long: `Starts the HTTP server exposing the chat, GIF, and conversation
management endpoints. Conversation state is held in memory for the process
lifetime.`,
	RunE: runServe,
}

var listenFlag string

func init() {
	serveCmd.Flags().StringVar(&listenFlag, "listen", "", "Listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if listenFlag != "" {
		cfg.ListenAddr = listenFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if strings.HasPrefix(cfg.TenorAPIKey, "AIza") {
		log.Printf("Warning: TENOR_API_KEY looks like a generic Google API key; use a Tenor key")
	}

	registry := chat.NewRegistry()
	gifs := gif.NewFetcher(cfg.TenorAPIKey, cfg.TenorBaseURL)
	orchestrator := chat.NewOrchestrator(
		registry,
		memory.NewRegexExtractor(),
		sentiment.NewHTTPClassifier(cfg.SentimentEndpoint, cfg.SentimentAPIKey),
		completion.New(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL),
		gifs,
		telemetry.NewProvider(telemetry.Config{Enabled: cfg.TelemetryEnabled}),
	)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(orchestrator, registry, gifs).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Tonebot listening on %s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}
