package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults;
// a few of them may be overlaid later from the Secrets Manager bundle.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// AWS
	Region     string
	SecretName string

	// Bedrock
	ModelID  string
	ModelARN string
	KBID     string

	// DynamoDB
	CustomersTable string

	// Bland voice API
	BlandBaseURL string
	BlandAPIKey  string

	// HTTP client
	HTTPTimeout time.Duration

	// Sessions
	SessionTTL time.Duration

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Region:     getEnv("AWS_REGION", "us-east-1"),
		SecretName: getEnv("SECRET_NAME", "rivertownchat"),

		ModelID:  getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-haiku-20240307-v1:0"),
		ModelARN: getEnv("BEDROCK_MODEL_ARN", "arn:aws:bedrock:us-east-1::foundation-model/anthropic.claude-3-haiku-20240307-v1:0"),
		KBID:     getEnv("BEDROCK_KB_ID", ""),

		CustomersTable: getEnv("CUSTOMERS_TABLE", "Rivertownball-cus"),

		BlandBaseURL: getEnv("BLAND_BASE_URL", "https://api.bland.ai"),
		BlandAPIKey:  getEnv("BLAND_API_KEY", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// ApplySecretBundle overlays fields fetched from the Secrets Manager bundle.
// Bundle values fill fields the environment left empty — env always wins,
// mirroring the .env precedence rule.
func (c *Config) ApplySecretBundle(bundle map[string]string) {
	if v := bundle["BEDROCK_KB_ID"]; v != "" && os.Getenv("BEDROCK_KB_ID") == "" {
		c.KBID = v
	}
	if v := bundle["BEDROCK_MODEL_ARN"]; v != "" && os.Getenv("BEDROCK_MODEL_ARN") == "" {
		c.ModelARN = v
	}
	if v := bundle["BLAND_API_KEY"]; v != "" && os.Getenv("BLAND_API_KEY") == "" {
		c.BlandAPIKey = v
	}
	if v := bundle["AWS_REGION"]; v != "" && os.Getenv("AWS_REGION") == "" {
		c.Region = v
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
