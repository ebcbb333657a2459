// Package config loads the advisor's runtime configuration from the
// environment once at startup. The returned Config is a value; nothing
// mutates it after Load.
package config

import (
	"os"
	"strconv"
)

// Config holds everything the advisor reads from the environment.
type Config struct {
	// AnthropicKey is the API key for model calls. Empty means the
	// engine cannot be constructed; the entrypoint decides how loudly
	// to fail.
	AnthropicKey string

	// Model overrides the default model name when set.
	Model string

	// MaxTokens caps response length. Zero means the engine default.
	MaxTokens int64

	// Port is the HTTP listen port.
	Port string

	// FinDBPath and MemoryDBPath are the SQLite file paths. ":memory:"
	// works for both.
	FinDBPath    string
	MemoryDBPath string
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		Model:        os.Getenv("ADVISOR_MODEL"),
		MaxTokens:    getEnvInt64("ADVISOR_MAX_TOKENS", 0),
		Port:         getEnv("PORT", "8080"),
		FinDBPath:    getEnv("ADVISOR_FIN_DB", "advisor.db"),
		MemoryDBPath: getEnv("ADVISOR_MEMORY_DB", "advisor_memory.db"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
