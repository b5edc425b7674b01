package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/recallware/recall-go/completion"
	"github.com/recallware/recall-go/completion/openai"
)

func completionsServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("Unexpected message shape: %+v", req.Messages)
		}
		resp := map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": reply},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Complete(t *testing.T) {
	srv := completionsServer(t, "  Hello there!  ")
	defer srv.Close()

	client, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	reply, err := client.Complete(context.Background(), "User: hi\nAssistant:")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if reply != "Hello there!" {
		t.Errorf("Reply = %q, want trimmed %q", reply, "Hello there!")
	}
}

func TestClient_APIErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error from 400 response")
	}
	var apiErr *completion.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *completion.APIError, got %T: %v", err, err)
	}
	if completion.FallbackReply(err) != completion.ReplyBadRequest {
		t.Errorf("Expected bad-request fallback for API error")
	}
}

func TestClient_NetworkErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Connection refused from here on.

	client, err := openai.New(openai.Config{APIKey: "test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = client.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("Expected error from dead server")
	}
	if completion.FallbackReply(err) != completion.ReplyNetworkError {
		t.Errorf("Expected network fallback, got %q", completion.FallbackReply(err))
	}
}

func TestClient_RequiresAPIKey(t *testing.T) {
	if _, err := openai.New(openai.Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}
