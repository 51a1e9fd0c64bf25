package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment variables shared by the handlers.
type Config struct {
	Region             string
	UsersTable         string
	UserInterestsTable string
	DynamoDBEndpoint   string
	AppEnv             string
	OpenAIModel        string
	OpenAIBaseURL      string
	OpenAISecretArn    string
	InterestQueryLimit int32
	DevServerAddr      string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Region:             getEnvOrDefault("AWS_REGION", "us-east-1"),
		UsersTable:         getEnvOrDefault("USERS_TABLE", "hobbymatch-users"),
		UserInterestsTable: getEnvOrDefault("USER_INTERESTS_TABLE", "hobbymatch-user-interests"),
		DynamoDBEndpoint:   getEnvOrDefault("DYNAMODB_ENDPOINT", ""),
		AppEnv:             getEnvOrDefault("APP_ENV", "production"),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnvOrDefault("OPENAI_BASE_URL", ""),
		OpenAISecretArn:    getEnvOrDefault("OPENAI_SECRET_ARN", ""),
		InterestQueryLimit: getInt32EnvOrDefault("INTEREST_QUERY_LIMIT", 50),
		DevServerAddr:      getEnvOrDefault("DEVSERVER_ADDR", ":3000"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether error details may be returned to callers.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func validateConfig(cfg *Config) error {
	if cfg.UsersTable == "" {
		return fmt.Errorf("USERS_TABLE environment variable is required")
	}
	if cfg.UserInterestsTable == "" {
		return fmt.Errorf("USER_INTERESTS_TABLE environment variable is required")
	}
	if cfg.InterestQueryLimit <= 0 {
		return fmt.Errorf("INTEREST_QUERY_LIMIT must be positive, got %d", cfg.InterestQueryLimit)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt32EnvOrDefault(key string, defaultValue int32) int32 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return defaultValue
	}
	return int32(n)
}
