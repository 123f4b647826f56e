package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the relay gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Public base URL for this service (e.g. https://xxx.ngrok-free.dev when behind ngrok).
	// Twilio connects to wss://<this-host>/streams/relay.
	// Optional; if unset, logs ws://localhost:PORT/streams/relay.
	RelayGatewayURL string `envconfig:"RELAY_GATEWAY_URL" default:""`

	// OpenAI completion configuration
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	MaxTokens    int    `envconfig:"OPENAI_MAX_TOKENS" default:"300"`
	SystemPrompt string `envconfig:"SYSTEM_PROMPT" default:"You are a friendly SDR answering questions about the product over the phone. Keep replies short and conversational."`

	// Intent detection configuration
	IntentKeywords  string `envconfig:"INTENT_KEYWORDS" default:"schedule,book,meeting,demo,calendar"` // Comma-separated scheduling keywords
	IntentScanReply bool   `envconfig:"INTENT_SCAN_REPLY" default:"false"`                             // Also scan the agent's own reply

	// Handoff configuration
	HandoffMessage string `envconfig:"HANDOFF_MESSAGE" default:"Great! One of our team members will reach out shortly to get that scheduled. Thanks for calling!"`
	HandoffDelayMs int    `envconfig:"HANDOFF_DELAY_MS" default:"2500"` // Delay before ending the call, milliseconds
	HandoffReason  string `envconfig:"HANDOFF_REASON" default:"caller requested scheduling"`
	Greeting       string `envconfig:"GREETING" default:""` // Optional greeting spoken after setup

	// CRM logging webhook
	CRMWebhookURL string `envconfig:"CRM_WEBHOOK_URL" default:""`
	CRMTimeout    int    `envconfig:"CRM_TIMEOUT" default:"10"` // seconds

	// Twilio REST credentials (out-of-band call updates)
	TwilioAccountSID   string `envconfig:"TWILIO_ACCOUNT_SID" default:""`
	TwilioAuthToken    string `envconfig:"TWILIO_AUTH_TOKEN" default:""`
	ReplyViaCallUpdate bool   `envconfig:"REPLY_VIA_CALL_UPDATE" default:"false"`

	// Deepgram STT API configuration
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" default:""`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en"`  // Language code (en, es, fr, etc.)

	// Cartesia TTS API configuration
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" default:""`
	CartesiaVoiceID string `envconfig:"CARTESIA_VOICE_ID" default:"sonic-english"`
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic"`

	// Audio pipeline configuration
	AudioPipelineEnabled bool    `envconfig:"AUDIO_PIPELINE_ENABLED" default:"false"` // Buffer media frames and batch-transcribe on stop
	SpeakReplies         bool    `envconfig:"SPEAK_REPLIES" default:"false"`          // Synthesize replies and stream them back as paced media
	MediaChunkBytes      int     `envconfig:"MEDIA_CHUNK_BYTES" default:"3200"`       // Playback chunk size in bytes
	PacingIntervalMs     int     `envconfig:"PACING_INTERVAL_MS" default:"100"`       // Interval between playback chunks
	AudioBufferSize      int     `envconfig:"AUDIO_BUFFER_SIZE" default:"8192"`       // Ring buffer size in bytes
	VADEnergyThreshold   float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"500.0"`   // RMS energy threshold for barge-in detection
	VADSilenceFrames     int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`        // Frames of silence to mark speech end

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds
	ReconnectMaxAttempts       int `envconfig:"RECONNECT_MAX_ATTEMPTS" default:"5"`         // Maximum reconnection attempts
	ReconnectBackoff           int `envconfig:"RECONNECT_BACKOFF" default:"1000"`           // Reconnection backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.AudioPipelineEnabled && c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required when AUDIO_PIPELINE_ENABLED is set")
	}
	if c.SpeakReplies && c.CartesiaAPIKey == "" {
		return fmt.Errorf("CARTESIA_API_KEY is required when SPEAK_REPLIES is set")
	}
	if c.ReplyViaCallUpdate && (c.TwilioAccountSID == "" || c.TwilioAuthToken == "") {
		return fmt.Errorf("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN are required when REPLY_VIA_CALL_UPDATE is set")
	}
	if c.MediaChunkBytes <= 0 {
		return fmt.Errorf("MEDIA_CHUNK_BYTES must be positive")
	}
	return nil
}

// IntentKeywordList returns the configured scheduling keywords, lowercased and trimmed
func (c *Config) IntentKeywordList() []string {
	parts := strings.Split(c.IntentKeywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.ToLower(strings.TrimSpace(p)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

// HandoffDelay returns the handoff delay as a duration
func (c *Config) HandoffDelay() time.Duration {
	return time.Duration(c.HandoffDelayMs) * time.Millisecond
}

// PacingInterval returns the playback pacing interval as a duration
func (c *Config) PacingInterval() time.Duration {
	return time.Duration(c.PacingIntervalMs) * time.Millisecond
}

// CRMRequestTimeout returns the CRM webhook timeout as a duration
func (c *Config) CRMRequestTimeout() time.Duration {
	return time.Duration(c.CRMTimeout) * time.Second
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
