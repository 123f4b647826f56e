package relay

import (
	"encoding/json"
	"testing"
)

func TestParseInbound_Setup(t *testing.T) {
	raw := []byte(`{"type":"setup","callSid":"CA123","from":"+15551234567"}`)

	frame, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if frame.Kind != KindSetup {
		t.Errorf("expected KindSetup, got %v", frame.Kind)
	}
	if frame.CallSID != "CA123" {
		t.Errorf("expected callSid CA123, got %q", frame.CallSID)
	}
	if frame.CallerAddress != "+15551234567" {
		t.Errorf("expected caller +15551234567, got %q", frame.CallerAddress)
	}
}

func TestParseInbound_SetupCallIdentifierAlias(t *testing.T) {
	raw := []byte(`{"type":"setup","callIdentifier":"CA456"}`)

	frame, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if frame.CallSID != "CA456" {
		t.Errorf("expected callSid CA456 via alias, got %q", frame.CallSID)
	}
}

func TestParseInbound_Prompt(t *testing.T) {
	raw := []byte(`{"type":"prompt","voicePrompt":"hello there"}`)

	frame, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if frame.Kind != KindPrompt {
		t.Errorf("expected KindPrompt, got %v", frame.Kind)
	}
	if frame.Utterance != "hello there" {
		t.Errorf("expected utterance, got %q", frame.Utterance)
	}
}

func TestParseInbound_MediaEventKey(t *testing.T) {
	raw := []byte(`{"event":"media","media":{"payload":"AAEC"}}`)

	frame, err := ParseInbound(raw)
	if err != nil {
		t.Fatalf("ParseInbound failed: %v", err)
	}
	if frame.Kind != KindMedia {
		t.Errorf("expected KindMedia, got %v", frame.Kind)
	}
	if len(frame.Payload) != 3 || frame.Payload[0] != 0x00 || frame.Payload[2] != 0x02 {
		t.Errorf("unexpected decoded payload: %v", frame.Payload)
	}
}

func TestParseInbound_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"type":`},
		{"unknown type", `{"type":"bogus"}`},
		{"bad base64", `{"event":"media","media":{"payload":"!!!"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseInbound([]byte(tt.raw)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestTextFrame_Encode(t *testing.T) {
	data, err := TextFrame{Token: "hi", Last: false}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Type  string `json:"type"`
		Token string `json:"token"`
		Last  bool   `json:"last"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Type != "text" || decoded.Token != "hi" || decoded.Last {
		t.Errorf("unexpected frame: %+v", decoded)
	}
}

func TestMediaFrame_Encode(t *testing.T) {
	data, err := MediaFrame{Payload: []byte{0x00, 0x01, 0x02}}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded struct {
		Event string `json:"event"`
		Media struct {
			Payload string `json:"payload"`
		} `json:"media"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Event != "media" {
		t.Errorf("expected event media, got %q", decoded.Event)
	}
	if decoded.Media.Payload != "AAEC" {
		t.Errorf("expected base64 payload AAEC, got %q", decoded.Media.Payload)
	}
}

func TestEndFrame_Encode(t *testing.T) {
	data, err := EndFrame{ReasonCode: "sdr-handoff", Reason: "scheduling request"}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var outer struct {
		Type        string `json:"type"`
		HandoffData string `json:"handoffData"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if outer.Type != "end" {
		t.Errorf("expected type end, got %q", outer.Type)
	}

	// handoffData is itself a JSON document carried as a string
	var inner struct {
		ReasonCode string `json:"reasonCode"`
		Reason     string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(outer.HandoffData), &inner); err != nil {
		t.Fatalf("handoffData is not valid JSON: %v", err)
	}
	if inner.ReasonCode != "sdr-handoff" {
		t.Errorf("expected reasonCode sdr-handoff, got %q", inner.ReasonCode)
	}
	if inner.Reason != "scheduling request" {
		t.Errorf("unexpected reason %q", inner.Reason)
	}
}
