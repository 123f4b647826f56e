package relay

import (
	"context"
	"time"

	"github.com/voxbridge/relay-gateway/internal/crm"
)

// triggerHandoff starts the delayed escalation. The closing message
// goes out immediately; the terminal frame follows after the
// configured delay so the final tokens have time to reach the caller.
// At most one handoff fires per session.
func (s *Session) triggerHandoff() {
	s.mu.Lock()
	if s.handoffTriggered || !s.active {
		s.mu.Unlock()
		return
	}
	s.handoffTriggered = true
	s.mu.Unlock()

	s.logger.Info().
		Dur("delay", s.cfg.HandoffDelay()).
		Msg("Intent matched, scheduling handoff")
	s.metrics.RecordHandoff()

	if s.cfg.HandoffMessage != "" {
		s.send(TextFrame{Token: s.cfg.HandoffMessage, Last: true})
	}

	timer := time.AfterFunc(s.cfg.HandoffDelay(), s.completeHandoff)

	s.mu.Lock()
	if !s.active {
		// Closed between the flag flip and here, make sure the
		// timer never fires
		s.mu.Unlock()
		if timer.Stop() {
			s.metrics.RecordHandoffCancelled()
		}
		return
	}
	s.handoffTimer = timer
	s.mu.Unlock()
}

// completeHandoff runs on the handoff timer: it logs the call summary
// and closes the leg with the terminal frame
func (s *Session) completeHandoff() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.handoffTimer = nil
	callSID := s.callSID
	caller := s.callerAddress
	correlationID := s.correlationID
	lastReply := s.lastReply
	s.mu.Unlock()

	if correlationID != "" && s.collab.CRM != nil {
		summary := &crm.Summary{
			CorrelationID: correlationID,
			CallSID:       callSID,
			CallerAddress: caller,
			Timestamp:     time.Now().UTC(),
			Transcript:    s.transcript.Turns(),
			LastReply:     lastReply,
			HandoffReason: s.cfg.HandoffReason,
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CRMRequestTimeout())
			defer cancel()

			err := s.collab.CRM.LogHandoff(ctx, summary)
			s.metrics.RecordCRMCall(err == nil)
			if err != nil {
				s.logger.Warn().Err(err).Msg("CRM handoff logging failed")
				s.metrics.RecordError("crm_error", "crm")
			}
		}()
	}

	s.logger.Info().Str("call_sid", callSID).Msg("Completing handoff")
	s.send(EndFrame{ReasonCode: "sdr-handoff", Reason: s.cfg.HandoffReason})
}
