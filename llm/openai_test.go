package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigolab/kaiwa/core"
)

func TestGenerate(t *testing.T) {
	var gotReq oaiRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(oaiResponse{
			Choices: []oaiChoice{{Message: oaiMessage{Role: "assistant", Content: "Could we move the meeting?"}}},
		})
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})

	out, err := c.Generate(context.Background(), core.Prompt{
		System:      "You are an assistant.",
		User:        "会議を動かせますか",
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Could we move the meeting?", out)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "会議を動かせますか", gotReq.Messages[1].Content)
	assert.Nil(t, gotReq.ResponseFormat)
}

func TestGenerateJSONMode(t *testing.T) {
	var gotReq oaiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(oaiResponse{
			Choices: []oaiChoice{{Message: oaiMessage{Content: `{"translation":"また明日"}`}}},
		})
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL})

	out, err := c.Generate(context.Background(), core.Prompt{User: "see you", JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"translation":"また明日"}`, out)

	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_object", gotReq.ResponseFormat.Type)
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), core.Prompt{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Generate(context.Background(), core.Prompt{User: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestConfigDefaults(t *testing.T) {
	c := New(Config{APIKey: "k"})
	assert.Equal(t, defaultBaseURL, c.cfg.BaseURL)
	assert.Equal(t, defaultModel, c.cfg.Model)
	assert.Equal(t, defaultTimeout, c.cfg.Timeout)
}
