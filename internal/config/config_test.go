package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"AWS_REGION", "USERS_TABLE", "USER_INTERESTS_TABLE", "DYNAMODB_ENDPOINT",
		"APP_ENV", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_SECRET_ARN", "INTEREST_QUERY_LIMIT", "DEVSERVER_ADDR"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "hobbymatch-users", cfg.UsersTable)
	assert.Equal(t, "hobbymatch-user-interests", cfg.UserInterestsTable)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, int32(50), cfg.InterestQueryLimit)
	assert.Equal(t, ":3000", cfg.DevServerAddr)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("USERS_TABLE", "users-test")
	t.Setenv("USER_INTERESTS_TABLE", "interests-test")
	t.Setenv("APP_ENV", "development")
	t.Setenv("INTEREST_QUERY_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "users-test", cfg.UsersTable)
	assert.Equal(t, "interests-test", cfg.UserInterestsTable)
	assert.Equal(t, int32(10), cfg.InterestQueryLimit)
	assert.True(t, cfg.IsDevelopment())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  &Config{UsersTable: "u", UserInterestsTable: "i", InterestQueryLimit: 50},
			wantErr: false,
		},
		{
			name:    "missing users table",
			config:  &Config{UserInterestsTable: "i", InterestQueryLimit: 50},
			wantErr: true,
		},
		{
			name:    "missing interests table",
			config:  &Config{UsersTable: "u", InterestQueryLimit: 50},
			wantErr: true,
		},
		{
			name:    "non-positive limit",
			config:  &Config{UsersTable: "u", UserInterestsTable: "i", InterestQueryLimit: 0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetInt32EnvOrDefault(t *testing.T) {
	t.Setenv("LIMIT_OK", "25")
	t.Setenv("LIMIT_BAD", "lots")

	assert.Equal(t, int32(25), getInt32EnvOrDefault("LIMIT_OK", 50))
	assert.Equal(t, int32(50), getInt32EnvOrDefault("LIMIT_BAD", 50))
	assert.Equal(t, int32(50), getInt32EnvOrDefault("LIMIT_MISSING", 50))
}
