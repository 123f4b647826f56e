package stt

import "context"

// Transcriber converts a complete linear PCM clip into text.
// Implementations must be safe for concurrent use by many sessions.
type Transcriber interface {
	// Transcribe transcribes one 8kHz 16-bit linear PCM clip
	Transcribe(ctx context.Context, clip []byte) (string, error)
}
