package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Pipeline PipelineConfig
	Editor   EditorConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// AnalysisConfig holds settings for the impact-analysis capability
type AnalysisConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PipelineConfig holds settings for the edit execution capability
type PipelineConfig struct {
	BaseURL string
	APIKey  string
	UseMock bool
}

// EditorConfig holds editor engine tunables
type EditorConfig struct {
	PlaceholderDuration float64       // seconds assigned to a new segment before voice generation
	DefaultCredits      int           // credit cost of the fallback strategy
	PollInterval        time.Duration // fixed interval between operation progress polls
	PollTimeout         time.Duration // give up polling an operation after this long
	DecisionTTL         time.Duration // pending strategy decisions expire after this long
	SessionTTL          time.Duration // idle editing sessions are evicted after this long
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Analysis: AnalysisConfig{
			BaseURL: getEnv("ANALYSIS_API_URL", "https://api.groq.com"),
			APIKey:  getEnv("ANALYSIS_API_KEY", ""),
			Model:   getEnv("ANALYSIS_MODEL", "llama-3.1-70b-versatile"),
			Timeout: getEnvAsDuration("ANALYSIS_TIMEOUT", "30s"),
		},
		Pipeline: PipelineConfig{
			BaseURL: getEnv("PIPELINE_API_URL", "http://localhost:9090"),
			APIKey:  getEnv("PIPELINE_API_KEY", ""),
			UseMock: getEnvAsBool("PIPELINE_USE_MOCK", false),
		},
		Editor: EditorConfig{
			PlaceholderDuration: getEnvAsFloat("EDITOR_PLACEHOLDER_DURATION", 3.0),
			DefaultCredits:      getEnvAsInt("EDITOR_DEFAULT_CREDITS", 5),
			PollInterval:        getEnvAsDuration("EDITOR_POLL_INTERVAL", "2s"),
			PollTimeout:         getEnvAsDuration("EDITOR_POLL_TIMEOUT", "10m"),
			DecisionTTL:         getEnvAsDuration("EDITOR_DECISION_TTL", "15m"),
			SessionTTL:          getEnvAsDuration("EDITOR_SESSION_TTL", "2h"),
		},
	}

	return config, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
