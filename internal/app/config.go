package app

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	// Completion API
	MistralAPIKey string
	MistralModel  string

	// Voice settings
	GreetingText string

	// Error monitoring
	SentryDSN string

	// Optional event log database. Empty disables event logging.
	DatabaseURL string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr: ":" + strconv.Itoa(getenvInt("PORT", 8080)),
		LogLevel: getenv("LOG_LEVEL", "info"),

		MistralAPIKey: getenv("MISTRAL_API_KEY", ""),
		MistralModel:  getenv("MISTRAL_MODEL", ""), // empty = fine-tuned default in llm

		GreetingText: getenv("GREETING_TEXT", "Hello! I'm your AI assistant. How can I help you today?"),

		SentryDSN:   getenv("SENTRY_DSN", ""),
		DatabaseURL: getenv("DATABASE_URL", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
