package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"CarrySentinel/internal/chat"
)

// Sender delivers webhook replies.
type Sender interface {
	SendTo(chatID, text string) error
}

// Server exposes the Telegram webhook endpoint and a health check. It is
// the interactive driver; the batch driver is the scheduler.
type Server struct {
	Secret string // expected X-Telegram-Bot-Api-Secret-Token, empty disables the check
	Chat   *chat.Handler
	Sender Sender

	httpServer *http.Server
}

// New creates a webhook server listening on addr.
func New(addr, secret string, handler *chat.Handler, sender Sender) *Server {
	s := &Server{
		Secret: secret,
		Chat:   handler,
		Sender: sender,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleHealth)
	mux.HandleFunc("POST /telegram", s.handleWebhook)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	log.Printf("[INFO] webhook server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// webhookUpdate is the subset of a Telegram update the bot cares about.
type webhookUpdate struct {
	Message       *webhookMessage `json:"message"`
	EditedMessage *webhookMessage `json:"edited_message"`
}

type webhookMessage struct {
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text string `json:"text"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.Secret != "" {
		if got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token"); got != s.Secret {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	// Telegram retries on non-200, so anything after authorization
	// answers ok even when the update is not interesting.
	var update webhookUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("[WARN] decode webhook update: %v", err)
		w.Write([]byte("ok"))
		return
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat.ID == 0 {
		w.Write([]byte("ok"))
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	reply := s.Chat.HandleMessage(r.Context(), chatID, msg.Text)
	if reply != "" {
		if err := s.Sender.SendTo(chatID, reply); err != nil {
			log.Printf("[ERROR] send webhook reply to %s: %v", chatID, err)
		}
	}
	w.Write([]byte("ok"))
}
