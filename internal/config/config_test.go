package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Errorf("Expected OpenAIAPIKey 'test-openai-key', got '%s'", cfg.OpenAIAPIKey)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")

	_, err := LoadFromEnv()
	if err == nil {
		t.Error("Expected error when OPENAI_API_KEY is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("OPENAI_API_KEY", "test-openai-key")
	defer os.Unsetenv("OPENAI_API_KEY")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port '8080', got '%s'", cfg.Port)
	}

	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("Expected default OpenAIModel 'gpt-4o-mini', got '%s'", cfg.OpenAIModel)
	}

	if cfg.HandoffDelayMs != 2500 {
		t.Errorf("Expected default HandoffDelayMs 2500, got %d", cfg.HandoffDelayMs)
	}

	if cfg.MediaChunkBytes != 3200 {
		t.Errorf("Expected default MediaChunkBytes 3200, got %d", cfg.MediaChunkBytes)
	}

	if cfg.PacingIntervalMs != 100 {
		t.Errorf("Expected default PacingIntervalMs 100, got %d", cfg.PacingIntervalMs)
	}

	if cfg.IntentScanReply {
		t.Error("Expected IntentScanReply to default to false")
	}

	if cfg.AudioBufferSize != 8192 {
		t.Errorf("Expected default AudioBufferSize 8192, got %d", cfg.AudioBufferSize)
	}
}

func TestLoad_ConditionalRequirements(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name: "audio pipeline without deepgram key",
			env: map[string]string{
				"OPENAI_API_KEY":         "k",
				"AUDIO_PIPELINE_ENABLED": "true",
			},
			wantErr: true,
		},
		{
			name: "audio pipeline with deepgram key",
			env: map[string]string{
				"OPENAI_API_KEY":         "k",
				"AUDIO_PIPELINE_ENABLED": "true",
				"DEEPGRAM_API_KEY":       "dg",
			},
			wantErr: false,
		},
		{
			name: "speak replies without cartesia key",
			env: map[string]string{
				"OPENAI_API_KEY": "k",
				"SPEAK_REPLIES":  "true",
			},
			wantErr: true,
		},
		{
			name: "call update without twilio credentials",
			env: map[string]string{
				"OPENAI_API_KEY":        "k",
				"REPLY_VIA_CALL_UPDATE": "true",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.env {
					os.Unsetenv(k)
				}
			}()

			_, err := LoadFromEnv()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestIntentKeywordList(t *testing.T) {
	cfg := &Config{IntentKeywords: "Schedule, BOOK , demo,,meeting"}

	keywords := cfg.IntentKeywordList()
	want := []string{"schedule", "book", "demo", "meeting"}

	if len(keywords) != len(want) {
		t.Fatalf("Expected %d keywords, got %d: %v", len(want), len(keywords), keywords)
	}
	for i, kw := range want {
		if keywords[i] != kw {
			t.Errorf("Keyword %d: expected '%s', got '%s'", i, kw, keywords[i])
		}
	}
}
