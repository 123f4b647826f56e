package stt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	websocketv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket"
	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/voxbridge/relay-gateway/internal/audio"
	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/observability"
	"github.com/voxbridge/relay-gateway/internal/resilience"
)

const (
	streamChunkBytes = 8192
	clipTimeout      = 30 * time.Second
)

// clipCallbackHandler collects final transcription results for one clip.
// It embeds the default handler and overrides only the methods we need.
type clipCallbackHandler struct {
	*websocketv1api.DefaultCallbackHandler

	mu     sync.Mutex
	finals []string

	closeOnce sync.Once
	done      chan struct{}

	onError func(*msginterfaces.ErrorResponse)
}

// Message collects final transcripts in arrival order
func (h *clipCallbackHandler) Message(msg *msginterfaces.MessageResponse) error {
	if msg == nil || !msg.IsFinal {
		return nil
	}
	if len(msg.Channel.Alternatives) == 0 {
		return nil
	}
	text := msg.Channel.Alternatives[0].Transcript
	if text == "" {
		return nil
	}
	h.mu.Lock()
	h.finals = append(h.finals, text)
	h.mu.Unlock()
	return nil
}

// Close signals that the server has flushed all results
func (h *clipCallbackHandler) Close(cr *msginterfaces.CloseResponse) error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// Error records the failure and unblocks the waiter
func (h *clipCallbackHandler) Error(er *msginterfaces.ErrorResponse) error {
	if h.onError != nil {
		h.onError(er)
	}
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

func (h *clipCallbackHandler) text() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strings.Join(h.finals, " ")
}

// DeepgramTranscriber implements Transcriber against Deepgram's
// streaming API: the buffered clip is written to one short-lived live
// connection and the final results are collected until the server
// closes the stream.
type DeepgramTranscriber struct {
	config         *config.Config
	circuitBreaker *resilience.CircuitBreaker
	reconnectCfg   *resilience.ReconnectConfig
}

// NewDeepgramTranscriber creates a new Deepgram transcription client
func NewDeepgramTranscriber(cfg *config.Config) *DeepgramTranscriber {
	return &DeepgramTranscriber{
		config: cfg,
		circuitBreaker: resilience.NewCircuitBreaker(
			"deepgram",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
		reconnectCfg: &resilience.ReconnectConfig{
			MaxAttempts: cfg.ReconnectMaxAttempts,
			Backoff:     time.Duration(cfg.ReconnectBackoff) * time.Millisecond,
			Multiplier:  2.0,
			MaxBackoff:  10 * time.Second,
		},
	}
}

// Transcribe transcribes one 8kHz 16-bit linear PCM clip
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, clip []byte) (string, error) {
	if len(clip) == 0 {
		return "", fmt.Errorf("empty audio clip")
	}

	var text string
	err := d.circuitBreaker.Call(func() error {
		var innerErr error
		text, innerErr = d.transcribeClip(ctx, clip)
		return innerErr
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return "", err
	}
	return text, nil
}

func (d *DeepgramTranscriber) transcribeClip(ctx context.Context, clip []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, clipTimeout)
	defer cancel()

	handler := &clipCallbackHandler{
		DefaultCallbackHandler: websocketv1api.NewDefaultCallbackHandler(),
		done:                   make(chan struct{}),
		onError: func(er *msginterfaces.ErrorResponse) {
			log.Printf("Deepgram error: %+v", er)
		},
	}

	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:      d.config.DeepgramModel,
		Language:   d.config.DeepgramLanguage,
		Punctuate:  true,
		Encoding:   "linear16",
		Channels:   1,
		SampleRate: 8000,
	}

	// The WebSocket client connects on creation; transient connect
	// failures are retried with backoff
	var client *listenClient.WSCallback
	err := resilience.Reconnect(ctx, func() error {
		var connErr error
		client, connErr = listenClient.NewWSUsingCallback(
			ctx,
			d.config.DeepgramAPIKey,
			nil, // ClientOptions - nil uses defaults
			tOptions,
			handler,
		)
		return connErr
	}, d.reconnectCfg)
	if err != nil {
		return "", fmt.Errorf("failed to create Deepgram client: %w", err)
	}

	for _, chunk := range audio.Chunk(clip, streamChunkBytes) {
		if _, err := client.Write(chunk); err != nil {
			return "", fmt.Errorf("failed to send audio to Deepgram: %w", err)
		}
	}

	// Finish flushes the stream; the server replies with the remaining
	// finals and then closes
	client.Finish()

	select {
	case <-handler.done:
	case <-ctx.Done():
		return "", fmt.Errorf("deepgram transcription timed out: %w", ctx.Err())
	}

	return handler.text(), nil
}
