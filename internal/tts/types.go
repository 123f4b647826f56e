package tts

import "context"

// Synthesizer converts text into one complete synthesized audio buffer
// (8kHz G.711 PCMU, ready for the Twilio media leg). Implementations
// must be safe for concurrent use by many sessions.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
