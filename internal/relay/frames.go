package relay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// InboundKind identifies the type of an inbound frame
type InboundKind int

const (
	KindSetup InboundKind = iota
	KindPrompt
	KindMedia
	KindStop
)

// InboundFrame is one parsed protocol message from the caller's side
type InboundFrame struct {
	Kind          InboundKind
	CallSID       string
	CallerAddress string
	Utterance     string
	Payload       []byte // decoded media bytes
}

// inboundEnvelope tolerates both "type" and "event" keyed frames, and
// both callSid and callIdentifier spellings, since the upstream
// protocol variants disagree
type inboundEnvelope struct {
	Type           string `json:"type"`
	Event          string `json:"event"`
	CallSID        string `json:"callSid"`
	CallIdentifier string `json:"callIdentifier"`
	From           string `json:"from"`
	VoicePrompt    string `json:"voicePrompt"`
	Media          *struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// ParseInbound parses one raw wire frame
func ParseInbound(raw []byte) (*InboundFrame, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unparseable frame: %w", err)
	}

	kind := env.Type
	if kind == "" {
		kind = env.Event
	}

	switch kind {
	case "setup", "start":
		callSID := env.CallSID
		if callSID == "" {
			callSID = env.CallIdentifier
		}
		return &InboundFrame{Kind: KindSetup, CallSID: callSID, CallerAddress: env.From}, nil

	case "prompt":
		return &InboundFrame{Kind: KindPrompt, Utterance: env.VoicePrompt}, nil

	case "media":
		if env.Media == nil {
			return nil, fmt.Errorf("media frame missing payload")
		}
		payload, err := base64.StdEncoding.DecodeString(env.Media.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode media payload: %w", err)
		}
		return &InboundFrame{Kind: KindMedia, Payload: payload}, nil

	case "stop":
		return &InboundFrame{Kind: KindStop}, nil

	default:
		return nil, fmt.Errorf("unknown frame type %q", kind)
	}
}

// OutboundFrame is one protocol message headed to the caller's side
type OutboundFrame interface {
	// Encode renders the frame in wire format
	Encode() ([]byte, error)
}

// TextFrame carries one token of agent speech; Last marks the end of a leg
type TextFrame struct {
	Token string
	Last  bool
}

// Encode renders {"type":"text","token":...,"last":...}
func (f TextFrame) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Type  string `json:"type"`
		Token string `json:"token"`
		Last  bool   `json:"last"`
	}{Type: "text", Token: f.Token, Last: f.Last})
}

// MediaFrame carries one chunk of synthesized audio
type MediaFrame struct {
	Payload []byte
}

// Encode renders {"event":"media","media":{"payload":<base64>}}
func (f MediaFrame) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Media struct {
			Payload string `json:"payload"`
		} `json:"media"`
	}{
		Event: "media",
		Media: struct {
			Payload string `json:"payload"`
		}{Payload: base64.StdEncoding.EncodeToString(f.Payload)},
	})
}

// MarkFrame signals a named playback checkpoint
type MarkFrame struct {
	Name string
}

// Encode renders {"event":"mark","mark":{"name":...}}
func (f MarkFrame) Encode() ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Mark  struct {
			Name string `json:"name"`
		} `json:"mark"`
	}{
		Event: "mark",
		Mark: struct {
			Name string `json:"name"`
		}{Name: f.Name},
	})
}

// EndFrame terminates the session; no frame follows it
type EndFrame struct {
	ReasonCode string
	Reason     string
}

// Encode renders {"type":"end","handoffData":<JSON-encoded string>}
func (f EndFrame) Encode() ([]byte, error) {
	handoffData, err := json.Marshal(struct {
		ReasonCode string `json:"reasonCode"`
		Reason     string `json:"reason"`
	}{ReasonCode: f.ReasonCode, Reason: f.Reason})
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Type        string `json:"type"`
		HandoffData string `json:"handoffData"`
	}{Type: "end", HandoffData: string(handoffData)})
}
