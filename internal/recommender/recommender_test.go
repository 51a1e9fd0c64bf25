package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hobbymatch/backend/internal/hobby"
)

type staticKey struct {
	key string
	err error
}

func (s staticKey) Get(context.Context) (string, error) { return s.key, s.err }

type mockCompleter struct {
	reply string
	err   error
	reqs  []openai.ChatCompletionRequest
}

func (m *mockCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.reply}}},
	}, nil
}

func withCompleter(t *testing.T, m *mockCompleter) *string {
	t.Helper()
	var usedKey string
	old := newChatCompleter
	newChatCompleter = func(apiKey, baseURL string) ChatCompleter {
		usedKey = apiKey
		return m
	}
	t.Cleanup(func() { newChatCompleter = old })
	return &usedKey
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt([]string{"Hiking", "Chess"}, hobby.Preferences{Budget: "low"})
	assert.Contains(t, p, "Based on these interests: Hiking, Chess\n")
	assert.Contains(t, p, "Time available: flexible\n")
	assert.Contains(t, p, "Budget: low\n")
	assert.Contains(t, p, "Skill level: beginner\n")
	assert.Contains(t, p, "whyGoodFit")
	assert.Contains(t, p, "JSON")
}

func TestRecommend_SendsSingleRequest(t *testing.T) {
	m := &mockCompleter{reply: `{"recommendations":[{"name":"Bouldering","description":"Climb","whyGoodFit":"Outdoors","estimatedCost":"$100","timeCommitment":"3 hours/week","difficulty":"beginner"}]}`}
	usedKey := withCompleter(t, m)

	recs, err := New(staticKey{key: "sk-test"}, "gpt-4o-mini", "").Recommend(context.Background(), []string{"Hiking"}, hobby.Preferences{})
	require.NoError(t, err)
	assert.False(t, recs.Fallback)
	require.Len(t, recs.Items, 1)
	assert.Equal(t, "Bouldering", recs.Items[0].Name)

	assert.Equal(t, "sk-test", *usedKey)
	require.Len(t, m.reqs, 1)
	req := m.reqs[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.Equal(t, 500, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, req.ResponseFormat.Type)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, "Hiking")
}

func TestRecommend_MalformedReplyFallsBack(t *testing.T) {
	withCompleter(t, &mockCompleter{reply: "Sure! Here are some hobbies: knitting"})

	recs, err := New(staticKey{key: "sk-test"}, "m", "").Recommend(context.Background(), []string{"Art"}, hobby.Preferences{})
	require.NoError(t, err)
	assert.True(t, recs.Fallback)
	assert.Equal(t, []hobby.Recommendation{hobby.FallbackRecommendation}, recs.Items)
}

func TestRecommend_MissingKey(t *testing.T) {
	m := &mockCompleter{}
	withCompleter(t, m)

	_, err := New(staticKey{err: errors.New("OpenAI API key not configured")}, "m", "").Recommend(context.Background(), []string{"Art"}, hobby.Preferences{})
	var derr *hobby.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, err.Error(), "OpenAI API key not configured")
	assert.Empty(t, m.reqs)
}

func TestRecommend_TransportError(t *testing.T) {
	withCompleter(t, &mockCompleter{err: errors.New("connection reset")})

	_, err := New(staticKey{key: "k"}, "m", "").Recommend(context.Background(), []string{"Art"}, hobby.Preferences{})
	var derr *hobby.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRecommend_AgainstHTTPServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-http", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"[{\"name\":\"Chess\",\"estimatedCost\":0}]"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	recs, err := New(staticKey{key: "sk-http"}, "gpt-4o-mini", srv.URL).Recommend(context.Background(), []string{"Strategy"}, hobby.Preferences{})
	require.NoError(t, err)
	require.Len(t, recs.Items, 1)
	assert.Equal(t, "Chess", recs.Items[0].Name)
	assert.Equal(t, "0", recs.Items[0].EstimatedCost)

	assert.Equal(t, 0.7, body["temperature"])
	assert.Equal(t, float64(500), body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
}
