package botpress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDispatchSynchronousReply(t *testing.T) {
	var got dispatchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responses":[{"type":"text","payload":{"text":"hi there"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	res, err := c.Dispatch(context.Background(), "wati-15551234567", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Delivered {
		t.Error("expected delivered")
	}
	if res.ReplyText != "hi there" {
		t.Errorf("expected reply 'hi there', got %q", res.ReplyText)
	}
	if got.ConversationID != "wati-15551234567" || got.Type != "text" || got.Text != "hello" {
		t.Errorf("unexpected dispatch payload: %+v", got)
	}
}

func TestDispatchAsynchronousReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	res, err := c.Dispatch(context.Background(), "wati-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Delivered {
		t.Error("expected delivered")
	}
	if res.ReplyText != "" {
		t.Errorf("expected no synchronous reply, got %q", res.ReplyText)
	}
}

func TestDispatchNon2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	res, err := c.Dispatch(context.Background(), "wati-1", "hello")
	if err != nil {
		t.Fatalf("non-2xx must not raise, got: %v", err)
	}
	if res.Delivered {
		t.Error("expected delivered=false on non-2xx")
	}
}

func TestDispatchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, "", time.Second, nil)
	if _, err := c.Dispatch(context.Background(), "wati-1", "hello"); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestDispatchSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", auth)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second, nil)
	if _, err := c.Dispatch(context.Background(), "wati-1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateConversation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"top level id", `{"id":"conv-1"}`, "conv-1"},
		{"conversationId field", `{"conversationId":"conv-2"}`, "conv-2"},
		{"data envelope", `{"data":{"id":"conv-3"}}`, "conv-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/conversations" {
					t.Errorf("expected /conversations path, got %s", r.URL.Path)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", 5*time.Second, nil)
			id, err := c.CreateConversation(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tt.want {
				t.Errorf("expected %s, got %s", tt.want, id)
			}
		})
	}
}

func TestCreateConversationFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second, nil)
	if _, err := c.CreateConversation(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv2.Close()

	c = NewClient(srv2.URL, "", 5*time.Second, nil)
	if _, err := c.CreateConversation(context.Background()); err == nil {
		t.Fatal("expected error when response carries no id")
	}
}
