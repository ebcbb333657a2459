package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// stubResponder echoes a canned reply and records what it was asked.
type stubResponder struct {
	reply       string
	lastMessage string
	lastUserID  string
}

func (s *stubResponder) Answer(ctx context.Context, message, userID, sessionID string) (string, error) {
	s.lastMessage = message
	s.lastUserID = userID
	return s.reply, nil
}

func TestChatEndpoint(t *testing.T) {
	responder := &stubResponder{reply: "Your total is 2450.75 JOD."}
	srv := New(responder, nil)

	body := `{"message": "what is my balance?", "user_id": "1", "session_id": "s1"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp chatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != "Your total is 2450.75 JOD." {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Timestamp == "" {
		t.Error("timestamp missing")
	}
	if responder.lastMessage != "what is my balance?" || responder.lastUserID != "1" {
		t.Errorf("responder saw message=%q user=%q", responder.lastMessage, responder.lastUserID)
	}
}

func TestChatRejectsBadRequests(t *testing.T) {
	srv := New(&stubResponder{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /chat status = %d, want 405", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader("not json"))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(&stubResponder{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status field = %q", resp["status"])
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	suggest := func(ctx context.Context, userID string) []string {
		if userID == "1" {
			return []string{"What's my total balance?"}
		}
		return []string{"Which banks are on the platform?"}
	}
	srv := New(&stubResponder{}, suggest)

	req := httptest.NewRequest(http.MethodGet, "/suggestions?user_id=1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "What's my total balance?" {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
}

func TestSuggestionsDisabledWithoutFunc(t *testing.T) {
	srv := New(&stubResponder{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/suggestions", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
