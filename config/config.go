package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"renovation-quoter/inference"
	"renovation-quoter/services"
	"renovation-quoter/storage"
)

// Inference backends.
const (
	BackendHuggingFace = "huggingface"
	BackendLLM         = "llm"
	BackendOffline     = "offline"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Location   string
	HourlyRate float64
	Margin     float64

	ClassifierBackend string
	QABackend         string

	HFBaseURL       string
	HFAPIToken      string
	ClassifierModel string
	QAModel         string

	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	InferenceTimeoutMs int
	MaxRetries         int
	MaxConcurrency     int
	RateLimitMs        int

	CatalogPath string
	OutputPath  string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	HTTPAddr           string
	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

// Load reads the .env file, if any, and returns a populated Config struct.
// Variables already set in the environment take precedence over the file.
func Load() *Config {
	envErr := godotenv.Load()

	return &Config{
		Location:   getEnv("QUOTE_LOCATION", "Marseille"),
		HourlyRate: getEnvFloat("QUOTE_HOURLY_RATE", 50),
		Margin:     getEnvFloat("QUOTE_MARGIN", 0.15),

		ClassifierBackend: strings.ToLower(getEnv("CLASSIFIER_BACKEND", BackendHuggingFace)),
		QABackend:         strings.ToLower(getEnv("QA_BACKEND", BackendHuggingFace)),

		HFBaseURL:       getEnv("HF_BASE_URL", inference.DefaultHuggingFaceURL),
		HFAPIToken:      getEnv("HF_API_TOKEN", ""),
		ClassifierModel: getEnv("CLASSIFIER_MODEL", inference.DefaultClassifierModel),
		QAModel:         getEnv("QA_MODEL", inference.DefaultQAModel),

		LLMBaseURL: getEnv("LLM_BASE_URL", inference.DefaultLLMBaseURL),
		LLMModel:   getEnv("LLM_MODEL", inference.DefaultLLMModel),
		LLMAPIKey:  getEnv("OPENAI_API_KEY", ""),

		InferenceTimeoutMs: getEnvInt("INFERENCE_TIMEOUT_MS", 15000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 2),
		MaxConcurrency:     getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 0),

		CatalogPath: getEnv("CATALOG_PATH", ""),
		OutputPath:  getEnv("OUTPUT_PATH", storage.DefaultOutputPath),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "quoter"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "quoter123"),
		PostgresDB:       getEnv("POSTGRES_DB", "quotes_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "console")),

		EnvFileLoaded: envErr == nil,
	}
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	var errs []error

	if c.HourlyRate < 0 {
		errs = append(errs, fmt.Errorf("QUOTE_HOURLY_RATE must be >= 0, got %v", c.HourlyRate))
	}
	if c.Margin < 0 {
		errs = append(errs, fmt.Errorf("QUOTE_MARGIN must be >= 0, got %v", c.Margin))
	}
	if c.MaxConcurrency < 1 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENCY must be >= 1, got %d", c.MaxConcurrency))
	}
	if c.InferenceTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("INFERENCE_TIMEOUT_MS must be > 0, got %d", c.InferenceTimeoutMs))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be >= 0, got %d", c.MaxRetries))
	}
	if c.RateLimitMs < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MS must be >= 0, got %d", c.RateLimitMs))
	}

	switch c.ClassifierBackend {
	case BackendHuggingFace, BackendOffline:
	default:
		errs = append(errs, fmt.Errorf("CLASSIFIER_BACKEND must be %s or %s, got %q",
			BackendHuggingFace, BackendOffline, c.ClassifierBackend))
	}
	switch c.QABackend {
	case BackendHuggingFace, BackendLLM, BackendOffline:
	default:
		errs = append(errs, fmt.Errorf("QA_BACKEND must be %s, %s or %s, got %q",
			BackendHuggingFace, BackendLLM, BackendOffline, c.QABackend))
	}
	if c.QABackend == BackendLLM && c.LLMAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when QA_BACKEND=llm"))
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ForceOffline switches both inference capabilities to the offline backend.
func (c *Config) ForceOffline() {
	c.ClassifierBackend = BackendOffline
	c.QABackend = BackendOffline
}

// Pricing returns the pricing configuration applied to every line item.
func (c *Config) Pricing() services.PricingConfig {
	return services.PricingConfig{
		Location:   c.Location,
		HourlyRate: c.HourlyRate,
		Margin:     c.Margin,
	}
}

// InferenceTimeout bounds each individual inference call.
func (c *Config) InferenceTimeout() time.Duration {
	return time.Duration(c.InferenceTimeoutMs) * time.Millisecond
}

// HuggingFace returns the Hugging Face backend configuration.
func (c *Config) HuggingFace() inference.HuggingFaceConfig {
	return inference.HuggingFaceConfig{
		BaseURL:         c.HFBaseURL,
		Token:           c.HFAPIToken,
		ClassifierModel: c.ClassifierModel,
		QAModel:         c.QAModel,
		MaxRetries:      c.MaxRetries,
		RateLimitMs:     c.RateLimitMs,
	}
}

// LLM returns the chat model configuration.
func (c *Config) LLM() inference.LLMConfig {
	return inference.LLMConfig{
		BaseURL: c.LLMBaseURL,
		Model:   c.LLMModel,
		APIKey:  c.LLMAPIKey,
	}
}

// Detector returns the classifier fan-out options.
func (c *Config) Detector() services.DetectorOptions {
	return services.DetectorOptions{
		Timeout:        c.InferenceTimeout(),
		MaxConcurrency: c.MaxConcurrency,
		RateLimitMs:    c.RateLimitMs,
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
