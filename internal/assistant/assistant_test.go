package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dashboard-sync-service/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.AssistantConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		Model:       "gpt-3.5-turbo",
		MaxTokens:   500,
		Temperature: 0.2,
		Timeout:     "5s",
	})
}

func TestSendTrimsReply(t *testing.T) {
	var got struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		Messages  []Message `json:"messages"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-3.5-turbo",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Rotate the keys.  \n"}}]}`))
	})

	reply, err := c.Send(context.Background(), []Message{
		{Role: RoleSystem, Content: CyberSystemPrompt},
		{Role: RoleUser, Content: "What now?"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply != "Rotate the keys." {
		t.Errorf("reply = %q", reply)
	}
	if got.Model != "gpt-3.5-turbo" || got.MaxTokens != 500 || len(got.Messages) != 2 || got.Messages[0].Role != RoleSystem {
		t.Errorf("request = %+v", got)
	}
}

func TestSendQuotaExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`))
	})
	_, err := c.Send(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestSendOtherFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})
	_, err := c.Send(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	if err == nil || errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want non-quota failure", err)
	}
}

func TestSendNotConfigured(t *testing.T) {
	c := New(config.AssistantConfig{Model: "gpt-3.5-turbo"})
	if _, err := c.Send(context.Background(), nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
