package relay

import (
	"bytes"
	"context"
	"testing"
	"time"
)

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

func testPCMU(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	return buf
}

// collectPlayback drains media frames until the completion mark or a
// timeout
func collectPlayback(t *testing.T, s *Session, wantMark bool) [][]byte {
	t.Helper()
	var chunks [][]byte
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f := <-s.Out():
			switch v := f.(type) {
			case MediaFrame:
				chunks = append(chunks, v.Payload)
			case MarkFrame:
				if !wantMark {
					t.Fatal("unexpected completion mark after interruption")
				}
				return chunks
			default:
				t.Fatalf("unexpected frame during playback: %#v", f)
			}
		case <-deadline:
			if wantMark {
				t.Fatalf("timed out waiting for completion mark, got %d chunks", len(chunks))
			}
			return chunks
		}
	}
}

func TestStreamMedia_RoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.MediaChunkBytes = 3200
	cfg.PacingIntervalMs = 1
	cfg.AudioBufferSize = 8192

	s := newTestSession(cfg, &fakeLLM{})
	defer s.Close()

	pcmu := testPCMU(10000)
	pb := newPlaybackState()
	go s.streamMedia(pcmu, pb)

	chunks := collectPlayback(t, s, true)

	if len(chunks) != 4 {
		t.Errorf("expected 4 chunks for 10000 bytes at 3200 per chunk, got %d", len(chunks))
	}

	var replayed []byte
	for _, c := range chunks {
		replayed = append(replayed, c...)
	}
	if !bytes.Equal(replayed, pcmu) {
		t.Error("reassembled playback does not match synthesized audio")
	}
}

func TestStreamMedia_ExactMultiple(t *testing.T) {
	cfg := testConfig()
	cfg.MediaChunkBytes = 3200
	cfg.PacingIntervalMs = 1
	cfg.AudioBufferSize = 8192

	s := newTestSession(cfg, &fakeLLM{})
	defer s.Close()

	pcmu := testPCMU(9600)
	pb := newPlaybackState()
	go s.streamMedia(pcmu, pb)

	chunks := collectPlayback(t, s, true)
	if len(chunks) != 3 {
		t.Errorf("expected 3 full chunks for 9600 bytes, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != 3200 {
			t.Errorf("chunk %d has %d bytes, want 3200", i, len(c))
		}
	}
}

func TestStreamMedia_Interrupted(t *testing.T) {
	cfg := testConfig()
	cfg.MediaChunkBytes = 160
	cfg.PacingIntervalMs = 20
	cfg.AudioBufferSize = 8192

	s := newTestSession(cfg, &fakeLLM{})
	defer s.Close()

	pcmu := testPCMU(16000)
	pb := newPlaybackState()
	done := make(chan struct{})
	go func() {
		s.streamMedia(pcmu, pb)
		close(done)
	}()

	// Let a few chunks through, then barge in
	var got int
	deadline := time.After(2 * time.Second)
	for got < 3 {
		select {
		case f := <-s.Out():
			if _, ok := f.(MediaFrame); ok {
				got++
			}
		case <-deadline:
			t.Fatal("timed out waiting for initial chunks")
		}
	}
	pb.stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("playback did not stop after interruption")
	}

	collectPlayback(t, s, false)
}

func TestSpeakReply_StreamsSynthesizedAudio(t *testing.T) {
	cfg := testConfig()
	cfg.MediaChunkBytes = 3200
	cfg.PacingIntervalMs = 1
	cfg.AudioBufferSize = 8192
	cfg.SpeakReplies = true

	pcmu := testPCMU(6400)
	s := NewSession(cfg, Collaborators{LLM: &fakeLLM{}, TTS: &fakeTTS{audio: pcmu}}, "")
	s.Start()
	defer s.Close()

	go s.speakReply("hello caller")

	chunks := collectPlayback(t, s, true)
	if len(chunks) != 2 {
		t.Errorf("expected 2 chunks, got %d", len(chunks))
	}
}

func TestSpeakReply_SynthesisFailureProducesNoFrames(t *testing.T) {
	cfg := testConfig()
	cfg.SpeakReplies = true

	s := NewSession(cfg, Collaborators{LLM: &fakeLLM{}, TTS: &fakeTTS{err: context.DeadlineExceeded}}, "")
	s.Start()
	defer s.Close()

	go s.speakReply("hello caller")

	if _, ok := nextFrame(s, 150*time.Millisecond); ok {
		t.Error("failed synthesis produced playback frames")
	}
}
