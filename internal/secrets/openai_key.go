// Package secrets resolves the OpenAI API credential.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// ErrMissingAPIKey means neither the environment nor the secret holds a key.
var ErrMissingAPIKey = errors.New("OpenAI API key not configured")

// secretsAPI is the part of the Secrets Manager client we use.
type secretsAPI interface {
	GetSecretValueWithContext(ctx aws.Context, input *secretsmanager.GetSecretValueInput, opts ...request.Option) (*secretsmanager.GetSecretValueOutput, error)
}

var newSecretsClient = func(region string) (secretsAPI, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}
	return secretsmanager.New(sess), nil
}

// OpenAIKey finds the API key: OPENAI_API_KEY wins, then the Secrets Manager
// secret named by secretArn. Resolution happens per call until it succeeds,
// so a missing key fails the request rather than the cold start.
type OpenAIKey struct {
	Region    string
	SecretArn string

	mu  sync.Mutex
	key string
}

// Get returns the API key, reading the secret at most once per process
// after a successful lookup.
func (k *OpenAIKey) Get(ctx context.Context) (string, error) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		return v, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.key != "" {
		return k.key, nil
	}
	if k.SecretArn == "" {
		return "", ErrMissingAPIKey
	}

	client, err := newSecretsClient(k.Region)
	if err != nil {
		return "", fmt.Errorf("create secrets manager client: %w", err)
	}
	key, err := getOpenAIAPIKey(ctx, client, k.SecretArn)
	if err != nil {
		return "", err
	}
	k.key = key
	return key, nil
}

func getOpenAIAPIKey(ctx context.Context, client secretsAPI, secretArn string) (string, error) {
	result, err := client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretArn),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret value: %w", err)
	}

	if result.SecretString == nil || *result.SecretString == "" {
		return "", ErrMissingAPIKey
	}

	// The secret is either JSON with an openai_api_key field or the bare key.
	var secretData map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &secretData); err == nil {
		if apiKey := secretData["openai_api_key"]; apiKey != "" {
			return apiKey, nil
		}
		return "", fmt.Errorf("openai_api_key field not found in secret JSON")
	}
	return *result.SecretString, nil
}
