package relay

import (
	"sync"
	"time"

	"github.com/voxbridge/relay-gateway/internal/audio"
)

// playbackState tracks one in-flight audio playback so caller speech
// can interrupt it mid-stream
type playbackState struct {
	once    sync.Once
	stopped chan struct{}
}

func newPlaybackState() *playbackState {
	return &playbackState{stopped: make(chan struct{})}
}

func (p *playbackState) stop() {
	p.once.Do(func() { close(p.stopped) })
}

func (p *playbackState) isStopped() bool {
	select {
	case <-p.stopped:
		return true
	default:
		return false
	}
}

// speakReply synthesizes the reply and streams it to the caller as
// paced media frames. Any playback already in flight is cut off first.
func (s *Session) speakReply(reply string) {
	s.metrics.RecordTTSStart()
	pcmu, err := s.collab.TTS.Synthesize(s.ctx, reply)
	s.metrics.RecordTTSEnd(err == nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Speech synthesis failed")
		s.metrics.RecordError("tts_error", "tts")
		return
	}
	if len(pcmu) == 0 {
		return
	}

	pb := newPlaybackState()
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	if prev := s.playback; prev != nil {
		prev.stop()
	}
	s.playback = pb
	s.mu.Unlock()

	s.streamMedia(pcmu, pb)

	s.mu.Lock()
	if s.playback == pb {
		s.playback = nil
	}
	s.mu.Unlock()
}

// streamMedia pushes the synthesized audio through the playback buffer
// in fixed-size chunks on the pacing interval, finishing with a mark
// frame when the whole reply played uninterrupted
func (s *Session) streamMedia(pcmu []byte, pb *playbackState) {
	buf := audio.NewRingBuffer(s.cfg.AudioBufferSize)
	pending := pcmu

	ticker := time.NewTicker(s.cfg.PacingInterval())
	defer ticker.Stop()

	chunk := make([]byte, s.cfg.MediaChunkBytes)
	for {
		// Top the buffer up from whatever TTS output is left
		if len(pending) > 0 {
			n := buf.Write(pending)
			pending = pending[n:]
		}
		if buf.IsEmpty() {
			break
		}

		select {
		case <-ticker.C:
		case <-pb.stopped:
			s.logger.Debug().Msg("Playback interrupted")
			return
		case <-s.ctx.Done():
			return
		}

		n := buf.Read(chunk)
		if n == 0 {
			continue
		}
		payload := make([]byte, n)
		copy(payload, chunk[:n])
		if !s.send(MediaFrame{Payload: payload}) {
			return
		}
		s.metrics.RecordAudioBytes("out", int64(n))
	}

	if pb.isStopped() {
		return
	}
	s.send(MarkFrame{Name: "done"})
}
