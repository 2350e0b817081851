// Package config loads runtime settings from the environment. All knobs come
// from env vars (with an optional .env file for local development) and are
// passed around as an explicit value, never read ambiently by business logic.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Version constants included in every response for contract migrations and
// downstream debugging.
const (
	APIVersion    = "3.0.0"
	SchemaVersion = "v3"
	ModelVersion  = "mailtriage-email-v3"
)

// Providers supported by the LLM adapter.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Settings holds all runtime configuration.
type Settings struct {
	// LLMProvider selects the inference backend: "openai" or "local".
	LLMProvider string

	// OpenAIModel is the model name used when LLMProvider is "openai".
	OpenAIModel string

	// OpenAIAPIKey overrides the SDK's own env resolution when set.
	OpenAIAPIKey string

	// ContractReference is a constant echoed in API metadata, used for
	// pipeline versioning and schema migrations.
	ContractReference string

	// MaxBodyChars caps the body text included in the model prompt.
	MaxBodyChars int

	// Temperature and TimeoutS are the LLM request options.
	Temperature float64
	TimeoutS    float64

	// DBPath is where the run-history store lives.
	DBPath string
}

// Load reads settings from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Settings {
	_ = godotenv.Load()

	return &Settings{
		LLMProvider:       envStr("LLM_PROVIDER", ProviderOpenAI),
		OpenAIModel:       envStr("OPENAI_MODEL", "gpt-5.2"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		ContractReference: envStr("CONTRACT_REFERENCE", "mailtriage.gmail_insights.v3"),
		MaxBodyChars:      envInt("MAX_BODY_CHARS", 12000),
		Temperature:       envFloat("LLM_TEMPERATURE", 0.2),
		TimeoutS:          envFloat("LLM_TIMEOUT_S", 90),
		DBPath:            envStr("MT_DB", defaultDBPath()),
	}
}

// Timeout returns the LLM request timeout as a duration.
func (s *Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutS * float64(time.Second))
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".mailtriage", "triage.db")
	}
	return filepath.Join(home, ".mailtriage", "triage.db")
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: ignoring %s=%q: %v\n", key, v, err)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: ignoring %s=%q: %v\n", key, v, err)
		return def
	}
	return f
}
