// Package server is the thin HTTP layer over the concierge service. It only
// decodes requests, calls the facade, and encodes replies; every error
// surfaces as JSON, never as a stack trace.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	contractx "github.com/kittipos/clinic-concierge/agent/contract"
)

// API is the slice of the service facade the transport exposes.
type API interface {
	Login(ctx context.Context, loginID, password, typ string) (*contractx.User, error)
	Chat(ctx context.Context, identity, message string) (string, error)
	ChatAsDoctor(ctx context.Context, identity, message string) (string, error)
	History(ctx context.Context, identity string) ([]contractx.Message, error)
	GenerateReport(ctx context.Context, identity string, notify bool) (contractx.ReportResult, error)
}

type Server struct {
	api API
}

func New(api API) *Server {
	return &Server{api: api}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/login", s.handleLogin)
	r.Post("/chat", s.handleChat(s.api.Chat))
	r.Post("/chat-doctor", s.handleChat(s.api.ChatAsDoctor))
	r.Get("/context/{login_id}", s.handleHistory)
	r.Post("/generate-report", s.handleGenerateReport)

	return r
}

type loginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
	Type     string `json:"type"`
}

type chatRequest struct {
	LoginID string `json:"login_id"`
	Message string `json:"message"`
}

type reportRequest struct {
	LoginID     string `json:"login_id"`
	SendToSlack *bool  `json:"send_to_slack,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	user, err := s.api.Login(r.Context(), req.LoginID, req.Password, req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"login_id": user.LoginID,
		"type":     user.Type,
	})
}

func (s *Server) handleChat(chat func(ctx context.Context, identity, message string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decode(w, r, &req) {
			return
		}
		reply, err := chat(r.Context(), req.LoginID, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"response": reply})
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity := chi.URLParam(r, "login_id")
	history, err := s.api.History(r.Context(), identity)
	if err != nil {
		writeError(w, err)
		return
	}
	if history == nil {
		history = []contractx.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"context": history})
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if !decode(w, r, &req) {
		return
	}
	notify := true
	if req.SendToSlack != nil {
		notify = *req.SendToSlack
	}
	result, err := s.api.GenerateReport(r.Context(), req.LoginID, notify)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"report":       result.Report,
		"slack_status": result.NotifyStatus,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid request body"})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contractx.ErrAuth):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
	case errors.Is(err, contractx.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
	default:
		log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response failed")
	}
}
