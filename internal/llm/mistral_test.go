package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewMistralClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		client := NewMistralClient(MistralConfig{
			APIKey: "test-key",
		})

		if client.model != DefaultModel {
			t.Errorf("model = %q, want %q", client.model, DefaultModel)
		}
		if client.baseURL != mistralAPIURL {
			t.Errorf("baseURL = %q, want %q", client.baseURL, mistralAPIURL)
		}
		if client.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", client.apiKey, "test-key")
		}
	})

	t.Run("custom model", func(t *testing.T) {
		client := NewMistralClient(MistralConfig{
			APIKey: "test-key",
			Model:  "mistral-small-latest",
		})

		if client.model != "mistral-small-latest" {
			t.Errorf("model = %q, want %q", client.model, "mistral-small-latest")
		}
	})
}

func TestComplete(t *testing.T) {
	t.Run("returns top choice content", func(t *testing.T) {
		var gotReq chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "Sure, I can help with that."}},
				},
			})
		}))
		defer srv.Close()

		client := NewMistralClient(MistralConfig{APIKey: "test-key", BaseURL: srv.URL})

		got, err := client.Complete(context.Background(), []Message{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: "hi"},
		})
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if got != "Sure, I can help with that." {
			t.Errorf("Complete() = %q", got)
		}

		if gotReq.Model != DefaultModel {
			t.Errorf("request model = %q, want %q", gotReq.Model, DefaultModel)
		}
		if gotReq.MaxTokens != maxTokens {
			t.Errorf("request max_tokens = %d, want %d", gotReq.MaxTokens, maxTokens)
		}
		if gotReq.Temperature != temperature {
			t.Errorf("request temperature = %f, want %f", gotReq.Temperature, temperature)
		}
		if len(gotReq.Messages) != 2 || gotReq.Messages[1].Content != "hi" {
			t.Errorf("request messages = %+v", gotReq.Messages)
		}
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		client := NewMistralClient(MistralConfig{APIKey: "bad-key", BaseURL: srv.URL})

		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Error("Complete() should return an error on 401")
		}
	})

	t.Run("empty choices is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer srv.Close()

		client := NewMistralClient(MistralConfig{APIKey: "test-key", BaseURL: srv.URL})

		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Error("Complete() should return an error on empty choices")
		}
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewMistralClient(MistralConfig{APIKey: "test-key", BaseURL: srv.URL})

		if _, err := client.Complete(context.Background(), nil); err == nil {
			t.Error("Complete() should return an error when the server is down")
		}
	})
}
