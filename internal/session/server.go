package session

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"example.com/bc-solver/internal/auth"
	"example.com/bc-solver/internal/httpapi"
)

// Tokens issues and checks session tokens.
type Tokens interface {
	Sign(sessionID string, ttl time.Duration) (string, error)
	Verify(token string) (*auth.Claims, error)
}

type Server struct {
	sessions *Service
	tokens   Tokens
	tokenTTL time.Duration
	log      *slog.Logger
}

func NewServer(sessions *Service, tokens Tokens, tokenTTL time.Duration, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		sessions: sessions,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	authed := httpapi.AuthMiddleware(s.tokens)

	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.Handle("GET /api/sessions/{id}", authed(http.HandlerFunc(s.handleState)))
	mux.Handle("DELETE /api/sessions/{id}", authed(http.HandlerFunc(s.handleDelete)))
	mux.Handle("POST /api/sessions/{id}/probe", authed(http.HandlerFunc(s.handleProbe)))
	mux.Handle("POST /api/sessions/{id}/feedback", authed(http.HandlerFunc(s.handleFeedback)))
	mux.HandleFunc("/ws/", s.handleWS)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		s.log.Error("create session", "err", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to create session")
		return
	}

	token, err := s.tokens.Sign(sess.ID(), s.tokenTTL)
	if err != nil {
		httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to sign token")
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, CreatedResponse{SessionID: sess.ID(), Token: token})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, sess.State())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.log.Error("delete session", "session", r.PathValue("id"), "err", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal", "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	p, err := sess.RequestProbe()
	if err != nil {
		code, errCode := errorStatus(err)
		httpapi.WriteError(w, code, errCode, err.Error())
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req FeedbackPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteError(w, http.StatusBadRequest, "bad_request", "invalid json")
		return
	}
	if req.Bulls == nil || req.Cows == nil {
		httpapi.WriteError(w, http.StatusBadRequest, "bad_request", "bulls and cows are required")
		return
	}

	st, err := sess.SubmitFeedback(*req.Bulls, *req.Cows)
	if err != nil {
		code, errCode := errorStatus(err)
		httpapi.WriteError(w, code, errCode, err.Error())
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, st)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.PathValue("id")
	sess, ok, err := s.sessions.GetOrLoad(r.Context(), id)
	if err != nil {
		s.log.Error("load session", "session", id, "err", err)
		httpapi.WriteError(w, http.StatusInternalServerError, "internal", "storage error")
		return nil, false
	}
	if !ok {
		httpapi.WriteError(w, http.StatusNotFound, "not_found", "session not found")
		return nil, false
	}
	return sess, true
}
