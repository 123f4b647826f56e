package llm

import (
	"context"

	"github.com/voxbridge/relay-gateway/internal/transcript"
)

// TokenCallback is called for each streamed token, in arrival order
type TokenCallback func(token string)

// CompletionStreamer produces one incremental completion over the whole
// transcript. Complete returns the accumulated reply text; on a mid-stream
// error it returns the text received so far together with the error.
type CompletionStreamer interface {
	Complete(ctx context.Context, turns []transcript.Turn, onToken TokenCallback) (string, error)
}
