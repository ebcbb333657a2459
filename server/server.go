// Package server exposes the advisor over HTTP: a JSON chat endpoint,
// a websocket transport for interactive frontends, and a health check.
// Authentication is the fronting layer's job; handlers trust the
// user_id field they are handed.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Responder answers one chat message.
type Responder interface {
	Answer(ctx context.Context, message, userID, sessionID string) (string, error)
}

// SuggestFunc returns starter queries for a user.
type SuggestFunc func(ctx context.Context, userID string) []string

// Server serves the chat API.
type Server struct {
	responder Responder
	suggest   SuggestFunc
	upgrader  websocket.Upgrader
}

// New creates a server around the responder. suggest may be nil, which
// disables the /suggestions endpoint.
func New(responder Responder, suggest SuggestFunc) *Server {
	return &Server{
		responder: responder,
		suggest:   suggest,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser frontends connect from their own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// chatRequest is one inbound chat message, over POST or websocket.
type chatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// chatResponse is the reply envelope.
type chatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	if s.suggest != nil {
		mux.HandleFunc("/suggestions", s.handleSuggestions)
	}
	return mux
}

// Run starts the server on addr and blocks.
func (s *Server) Run(addr string) error {
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws", addr)
	log.Printf("💬 Chat endpoint: http://localhost%s/chat", addr)
	log.Printf("💚 Health check: http://localhost%s/health", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	answer, err := s.responder.Answer(r.Context(), req.Message, req.UserID, req.SessionID)
	if err != nil {
		// Only context failures reach here; the client is usually gone.
		log.Printf("[SERVER] chat aborted: %v", err)
		http.Error(w, "request canceled", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  answer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleWebSocket speaks the same JSON envelope as /chat, one request
// and one reply per message, for the lifetime of the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[SERVER] websocket client connected: %s", r.RemoteAddr)
	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SERVER] websocket read failed: %v", err)
			}
			return
		}

		answer, err := s.responder.Answer(r.Context(), req.Message, req.UserID, req.SessionID)
		if err != nil {
			return
		}

		resp := chatResponse{
			Response:  answer,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[SERVER] websocket write failed: %v", err)
			return
		}
	}
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	suggestions := s.suggest(r.Context(), r.URL.Query().Get("user_id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] write response failed: %v", err)
	}
}
