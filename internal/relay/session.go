package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/voxbridge/relay-gateway/internal/audio"
	"github.com/voxbridge/relay-gateway/internal/callctrl"
	"github.com/voxbridge/relay-gateway/internal/config"
	"github.com/voxbridge/relay-gateway/internal/crm"
	"github.com/voxbridge/relay-gateway/internal/intent"
	"github.com/voxbridge/relay-gateway/internal/llm"
	"github.com/voxbridge/relay-gateway/internal/observability"
	"github.com/voxbridge/relay-gateway/internal/stt"
	"github.com/voxbridge/relay-gateway/internal/transcript"
	"github.com/voxbridge/relay-gateway/internal/tts"
)

// Collaborators bundles the external-service handles a session depends
// on. All of them are process-wide, stateless, and safe for concurrent
// use by many sessions.
type Collaborators struct {
	LLM         llm.CompletionStreamer
	STT         stt.Transcriber       // optional, audio pipeline path
	TTS         tts.Synthesizer       // optional, spoken-reply path
	CallControl callctrl.ReplyUpdater // optional, out-of-band replies
	CRM         crm.HandoffLogger     // optional, handoff logging
}

// turnRequest is one unit of work for the turn runner: either a text
// utterance or a buffered audio clip to transcribe first
type turnRequest struct {
	utterance string
	clip      []byte // 8kHz 16-bit linear PCM
}

// Session owns the state of one relay connection.
//
// Inbound frames are dispatched from the single connection reader;
// completions run one at a time on the turn-runner goroutine, so the
// transcript is only ever touched from one goroutine. The small flag
// set (active, handoffTriggered, identifiers) is shared with the
// handoff timer and guarded by mu.
type Session struct {
	id       string
	cfg      *config.Config
	collab   Collaborators
	detector *intent.Detector
	metrics  *observability.SessionMetrics
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	transcript *transcript.Store
	vad        *audio.VADDetector

	mu               sync.Mutex
	callSID          string
	callerAddress    string
	correlationID    string
	setupSeen        bool
	active           bool
	handoffTriggered bool
	lastReply        string
	handoffTimer     *time.Timer
	playback         *playbackState
	mediaFrames      [][]byte

	turns chan turnRequest
	out   chan OutboundFrame
}

// NewSession creates the session for one connection. correlationID is
// the optional external record reference captured at connect time.
func NewSession(cfg *config.Config, collab Collaborators, correlationID string) *Session {
	id := observability.NewSessionID()
	ctx, cancel := context.WithCancel(context.Background())

	metrics := observability.NewSessionMetrics(id)
	metrics.RecordSessionStart()

	return &Session{
		id:            id,
		cfg:           cfg,
		collab:        collab,
		detector:      intent.NewDetector(cfg.IntentKeywordList()),
		metrics:       metrics,
		logger:        observability.SessionLogger(correlationID, id),
		ctx:           ctx,
		cancel:        cancel,
		transcript:    transcript.New(cfg.SystemPrompt),
		vad: audio.NewVADDetector(&audio.VADConfig{
			EnergyThreshold: cfg.VADEnergyThreshold,
			SilenceFrames:   cfg.VADSilenceFrames,
		}),
		correlationID: correlationID,
		active:        true,
		turns:         make(chan turnRequest, 8),
		out:           make(chan OutboundFrame, 64),
	}
}

// Start launches the turn runner
func (s *Session) Start() {
	go s.runTurns()
}

// Out exposes the outbound frame stream for the connection writer
func (s *Session) Out() <-chan OutboundFrame {
	return s.out
}

// Done is closed when the session has been torn down
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// ID returns the connection-scoped session identifier
func (s *Session) ID() string {
	return s.id
}

// IsActive reports whether the session is still live
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// HandleRaw parses and dispatches one wire frame. Malformed frames are
// dropped without touching session state.
func (s *Session) HandleRaw(raw []byte) {
	frame, err := ParseInbound(raw)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Dropping malformed frame")
		s.metrics.RecordDroppedFrame("malformed")
		return
	}
	s.Handle(frame)
}

// Handle dispatches one parsed inbound frame. Callers must not invoke
// Handle concurrently for the same session.
func (s *Session) Handle(frame *InboundFrame) {
	switch frame.Kind {
	case KindSetup:
		s.handleSetup(frame)
	case KindPrompt:
		s.enqueueTurn(turnRequest{utterance: frame.Utterance})
	case KindMedia:
		s.handleMedia(frame.Payload)
	case KindStop:
		s.handleStop()
	}
}

// handleSetup captures the call identity. First write wins; repeated
// setup frames are logged and ignored.
func (s *Session) handleSetup(frame *InboundFrame) {
	s.mu.Lock()
	if s.setupSeen {
		s.mu.Unlock()
		s.logger.Info().
			Str("call_sid", frame.CallSID).
			Msg("Ignoring repeated setup frame")
		return
	}
	s.setupSeen = true
	s.callSID = frame.CallSID
	s.callerAddress = frame.CallerAddress
	s.mu.Unlock()

	s.logger.Info().
		Str("call_sid", frame.CallSID).
		Str("caller", frame.CallerAddress).
		Msg("Call started")

	if s.cfg.Greeting != "" {
		s.send(TextFrame{Token: s.cfg.Greeting, Last: true})
	}
}

// handleMedia buffers one media frame for the audio pipeline and runs
// barge-in detection against any active playback
func (s *Session) handleMedia(payload []byte) {
	if !s.cfg.AudioPipelineEnabled {
		s.metrics.RecordDroppedFrame("pipeline_disabled")
		return
	}

	buf := make([]byte, len(payload))
	copy(buf, payload)

	s.mu.Lock()
	s.mediaFrames = append(s.mediaFrames, buf)
	pb := s.playback
	s.mu.Unlock()

	s.metrics.RecordAudioBytes("in", int64(len(payload)))

	// Caller speech interrupts playback
	_, started, _ := s.vad.ProcessFrame(audio.DecodeMulawSamples(payload))
	if started && pb != nil {
		s.logger.Info().Msg("Caller speech detected, stopping playback")
		pb.stop()
	}
}

// handleStop flushes the audio pipeline: buffered frames are
// concatenated into one linear PCM clip and queued for transcription
func (s *Session) handleStop() {
	s.mu.Lock()
	frames := s.mediaFrames
	s.mediaFrames = nil
	s.mu.Unlock()

	s.vad.Reset()

	if !s.cfg.AudioPipelineEnabled || len(frames) == 0 {
		return
	}

	total := 0
	for _, f := range frames {
		total += len(f)
	}
	clip := make([]byte, 0, total)
	for _, f := range frames {
		clip = append(clip, f...)
	}

	s.logger.Debug().
		Int("frames", len(frames)).
		Int("bytes", total).
		Msg("Flushing buffered audio for transcription")

	s.enqueueTurn(turnRequest{clip: audio.ConvertPCMUToPCM(clip)})
}

func (s *Session) enqueueTurn(req turnRequest) {
	select {
	case s.turns <- req:
	default:
		s.logger.Warn().Msg("Turn queue full, dropping request")
		s.metrics.RecordDroppedFrame("queue_full")
	}
}

// runTurns drives completions one at a time. Blocking here never stalls
// the connection reader, and a connection close cancels the in-flight
// completion through the session context.
func (s *Session) runTurns() {
	for {
		select {
		case req := <-s.turns:
			s.runTurn(req)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) runTurn(req turnRequest) {
	utterance := req.utterance

	if req.clip != nil {
		if s.collab.STT == nil {
			s.logger.Warn().Msg("No transcriber configured, discarding audio clip")
			return
		}
		s.metrics.RecordSTTStart()
		text, err := s.collab.STT.Transcribe(s.ctx, req.clip)
		s.metrics.RecordSTTEnd(err == nil)
		if err != nil {
			s.logger.Error().Err(err).Msg("Transcription failed")
			s.metrics.RecordError("stt_error", "stt")
			return
		}
		utterance = text
	}

	if utterance == "" {
		return
	}

	s.mu.Lock()
	skip := s.handoffTriggered || !s.active
	s.mu.Unlock()
	if skip {
		s.logger.Debug().Msg("Skipping turn after handoff")
		return
	}

	s.transcript.AppendUser(utterance)
	s.logger.Info().Str("utterance", utterance).Msg("Running completion turn")

	s.metrics.RecordTurnStart()
	reply, err := s.collab.LLM.Complete(s.ctx, s.transcript.Turns(), func(token string) {
		s.send(TextFrame{Token: token})
	})
	s.metrics.RecordTurnEnd(err == nil)

	if err != nil {
		s.logger.Error().Err(err).Msg("Completion stream failed")
		s.metrics.RecordError("llm_stream_error", "llm")
	}

	// Every leg ends in exactly one final chunk, also on failure
	s.send(TextFrame{Last: true})

	if reply != "" {
		s.transcript.AppendAssistant(reply)
		s.mu.Lock()
		s.lastReply = reply
		s.mu.Unlock()
	}

	if err == nil && reply != "" {
		if s.cfg.ReplyViaCallUpdate && s.collab.CallControl != nil {
			go s.updateCallReply(reply)
		}
		if s.cfg.SpeakReplies && s.collab.TTS != nil {
			go s.speakReply(reply)
		}
	}

	if s.detector.Detect(utterance) || (s.cfg.IntentScanReply && s.detector.Detect(reply)) {
		s.triggerHandoff()
	}
}

// updateCallReply pushes the reply to the live call out-of-band
func (s *Session) updateCallReply(reply string) {
	s.mu.Lock()
	callSID := s.callSID
	s.mu.Unlock()

	if err := s.collab.CallControl.UpdateReply(s.ctx, callSID, reply); err != nil {
		s.logger.Warn().Err(err).Str("call_sid", callSID).Msg("Out-of-band reply update failed")
		s.metrics.RecordError("call_update_error", "callctrl")
	}
}

// send queues one outbound frame, refusing to queue anything once the
// session is closed
func (s *Session) send(f OutboundFrame) bool {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if !active {
		return false
	}

	select {
	case s.out <- f:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Close tears the session down: marks it inactive, cancels the pending
// handoff timer and any in-flight completion, stops playback, and
// discards buffered audio. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	timer := s.handoffTimer
	s.handoffTimer = nil
	pb := s.playback
	s.playback = nil
	s.mediaFrames = nil
	s.mu.Unlock()

	if timer != nil && timer.Stop() {
		s.metrics.RecordHandoffCancelled()
		s.logger.Info().Msg("Handoff cancelled by disconnect")
	}
	if pb != nil {
		pb.stop()
	}

	s.cancel()
	s.metrics.RecordSessionEnd()
	s.logger.Info().Msg("Session closed")
}
