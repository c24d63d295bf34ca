package env

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	// Upstream voice agent endpoint
	DeepgramAPIKey   string
	AgentURL         string
	AgentLanguage    string
	AgentListenModel string
	ThinkProvider    string
	ThinkModel       string
	ThinkTemperature float64
	AgentPrompt      string
	AgentGreeting    string
	AgentSpeakModel  string
	AgentVoice       string

	// Telephony side (Twilio)
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string
	PublicBaseURL     string // Public HTTPS URL for webhooks/WSS (e.g., https://api.example.com)

	// Relay tuning
	UpstreamFrameBytes    int // bytes of mu-law audio per upstream send (20 media frames = 400ms)
	DialTimeoutSec        int
	KeepAliveIntervalSec  int
	SessionIdleTimeoutSec int
	SweepIntervalSec      int

	RedisURL            string
	WebhookRateLimitRPM int

	CORSAllowedOrigins string

	OTELEndpoint string
	OTELEnabled  bool
}

const defaultAgentPrompt = `You are a helpful AI assistant integrated into a phone system.

Guidelines:
- Be concise and conversational since this is a voice interaction
- Keep responses brief and natural for voice conversation
- Be friendly and professional

Current user is calling via phone.`

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// Try to load .env file, but don't fail if it doesn't exist
		// This allows the app to work with environment variables only (e.g., in production)
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DeepgramAPIKey:   getEnv("DEEPGRAM_API_KEY", ""),
		AgentURL:         getEnv("AGENT_URL", "wss://agent.deepgram.com/agent"),
		AgentLanguage:    getEnv("AGENT_LANGUAGE", "en"),
		AgentListenModel: getEnv("AGENT_LISTEN_MODEL", "nova-2"),
		ThinkProvider:    getEnv("AGENT_THINK_PROVIDER", "open_ai"),
		ThinkModel:       getEnv("AGENT_THINK_MODEL", "gpt-4o-mini"),
		ThinkTemperature: getEnvFloat("AGENT_THINK_TEMPERATURE", 0.7),
		AgentPrompt:      getEnv("AGENT_PROMPT", defaultAgentPrompt),
		AgentGreeting:    getEnv("AGENT_GREETING", "Hello! I'm your AI assistant. How can I help you today?"),
		AgentSpeakModel:  getEnv("AGENT_SPEAK_MODEL", "aura-2-odysseus-en"),
		AgentVoice:       getEnv("AGENT_VOICE", "nova"),

		TwilioAccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", ""),

		UpstreamFrameBytes:    getEnvInt("UPSTREAM_FRAME_BYTES", 20*160),
		DialTimeoutSec:        getEnvInt("DIAL_TIMEOUT_SEC", 10),
		KeepAliveIntervalSec:  getEnvInt("KEEPALIVE_INTERVAL_SEC", 5),
		SessionIdleTimeoutSec: getEnvInt("SESSION_IDLE_TIMEOUT_SEC", 300),
		SweepIntervalSec:      getEnvInt("SWEEP_INTERVAL_SEC", 60),

		RedisURL:            getEnv("REDIS_URL", ""),
		WebhookRateLimitRPM: getEnvInt("WEBHOOK_RATE_LIMIT_RPM", 120),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		OTELEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	return cfg, nil
}

// Validate checks that the variables the relay cannot run without are set.
func (c *Config) Validate() error {
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("required environment variable DEEPGRAM_API_KEY is not set")
	}
	if c.UpstreamFrameBytes <= 0 {
		return fmt.Errorf("UPSTREAM_FRAME_BYTES must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}
