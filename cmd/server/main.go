package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voxbridge/relay-gateway/internal/callctrl"
	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/crm"
	"github.com/voxbridge/relay-gateway/internal/llm"
	"github.com/voxbridge/relay-gateway/internal/observability"
	"github.com/voxbridge/relay-gateway/internal/relay"
	"github.com/voxbridge/relay-gateway/internal/stt"
	"github.com/voxbridge/relay-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("model", cfg.OpenAIModel).
		Str("log_level", cfg.LogLevel).
		Bool("audio_pipeline", cfg.AudioPipelineEnabled).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Relay Gateway Service starting")

	// Shared, stateless service clients used by every session
	collab := relay.Collaborators{
		LLM: llm.NewOpenAIClient(cfg),
	}
	if cfg.AudioPipelineEnabled {
		collab.STT = stt.NewDeepgramTranscriber(cfg)
	}
	if cfg.SpeakReplies {
		collab.TTS = tts.NewCartesiaClient(cfg)
	}
	if cfg.ReplyViaCallUpdate {
		collab.CallControl = callctrl.NewTwilioClient(cfg)
	}
	if cfg.CRMWebhookURL != "" {
		collab.CRM = crm.NewWebhookClient(cfg)
	}

	listener := relay.NewListener(cfg, collab)

	// Create HTTP server
	mux := http.NewServeMux()

	// Relay WebSocket endpoint
	mux.HandleFunc("/streams/relay", listener.HandleRelayWS)

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint - checks validate configuration, not live APIs,
	// to avoid per-probe costs
	checks := map[string]observability.HealthCheckFunc{
		"openai": func(ctx context.Context) (bool, error) {
			if cfg.OpenAIAPIKey == "" {
				return false, fmt.Errorf("missing OpenAI API key")
			}
			return true, nil
		},
	}
	if cfg.AudioPipelineEnabled {
		checks["deepgram"] = func(ctx context.Context) (bool, error) {
			if cfg.DeepgramAPIKey == "" {
				return false, fmt.Errorf("missing Deepgram API key")
			}
			return true, nil
		}
	}
	if cfg.SpeakReplies {
		checks["cartesia"] = func(ctx context.Context) (bool, error) {
			if cfg.CartesiaAPIKey == "" {
				return false, fmt.Errorf("missing Cartesia API key")
			}
			return true, nil
		}
	}
	if cfg.CRMWebhookURL != "" {
		checks["crm"] = func(ctx context.Context) (bool, error) {
			if _, err := url.ParseRequestURI(cfg.CRMWebhookURL); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/relay", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
