// Package recommender asks an OpenAI chat model for hobby suggestions.
package recommender

import (
	"context"
	"log"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/hobbymatch/backend/internal/hobby"
)

const (
	temperature     = 0.7
	maxOutputTokens = 500
)

const systemPrompt = "You are a helpful hobby recommendation assistant. Suggest hobbies that fit the user's interests and constraints, and always answer with valid JSON."

// ChatCompleter is the part of the go-openai client we use.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// KeySource yields the OpenAI API key for a request.
type KeySource interface {
	Get(ctx context.Context) (string, error)
}

var newChatCompleter = func(apiKey, baseURL string) ChatCompleter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Client generates recommendations with one chat completion per call.
type Client struct {
	keys    KeySource
	model   string
	baseURL string
}

// New returns a Client for model. An empty baseURL uses the OpenAI API.
func New(keys KeySource, model, baseURL string) *Client {
	return &Client{keys: keys, model: model, baseURL: baseURL}
}

// Recommend makes exactly one chat completion call. A reply that is not the
// expected JSON yields hobby.Fallback(), not an error; a missing key or a
// failed call yields a *hobby.DependencyError.
func (c *Client) Recommend(ctx context.Context, interests []string, prefs hobby.Preferences) (hobby.Recommendations, error) {
	apiKey, err := c.keys.Get(ctx)
	if err != nil {
		return hobby.Recommendations{}, &hobby.DependencyError{Op: "resolve OpenAI API key", Err: err}
	}

	prompt := BuildPrompt(interests, prefs)
	log.Printf("Sending request to OpenAI with %d chars prompt", len(prompt))

	resp, err := newChatCompleter(apiKey, c.baseURL).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return hobby.Recommendations{}, &hobby.DependencyError{Op: "OpenAI API error", Err: err}
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	log.Printf("Received %d chars from OpenAI", len(content))

	recs, perr := ParseRecommendations(content)
	if perr != nil {
		log.Printf("Error parsing AI response: %v", perr)
	}
	return recs, nil
}

// BuildPrompt renders the user prompt. Missing preferences take the same
// defaults as a newly created user.
func BuildPrompt(interests []string, prefs hobby.Preferences) string {
	prefs = prefs.WithDefaults()

	var b strings.Builder
	b.WriteString("Based on these interests: " + strings.Join(interests, ", ") + "\n")
	b.WriteString("Time available: " + prefs.TimeAvailable + "\n")
	b.WriteString("Budget: " + prefs.Budget + "\n")
	b.WriteString("Skill level: " + prefs.SkillLevel + "\n\n")
	b.WriteString("Recommend 3-5 hobbies that would be a good fit. For each hobby, include:\n")
	b.WriteString("- name: hobby name\n")
	b.WriteString("- description: brief description\n")
	b.WriteString("- whyGoodFit: why it matches their interests\n")
	b.WriteString("- estimatedCost: startup cost estimate\n")
	b.WriteString("- timeCommitment: weekly time needed\n")
	b.WriteString("- difficulty: beginner/intermediate/advanced\n\n")
	b.WriteString(`Return a JSON object with a "recommendations" array holding the hobbies.`)
	return b.String()
}
