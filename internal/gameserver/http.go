package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pmourey/fungame/internal/game/session"
)

const (
	shutdownTimeout = 5 * time.Second
	// sseHeartbeat keeps idle event streams alive through proxies.
	sseHeartbeat = 25 * time.Second
)

// Server is the HTTP/SSE transport. It satisfies the lifecycle Service
// interface: Start blocks serving, Stop drains gracefully.
type Server struct {
	svc    *Service
	hub    *Hub
	http   *http.Server
	logger *zap.Logger
}

// NewServer builds the HTTP transport bound to addr.
func NewServer(addr string, svc *Service, hub *Hub, logger *zap.Logger) *Server {
	s := &Server{
		svc:    svc,
		hub:    hub,
		logger: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/games", s.handleCreate)
	mux.HandleFunc("GET /api/games", s.handleList)
	mux.HandleFunc("POST /api/games/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /api/games/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /api/games/{id}/start", s.handleStart)
	mux.HandleFunc("GET /api/games/{id}/state", s.handleState)
	mux.HandleFunc("POST /api/games/{id}/action", s.handleAction)
	mux.HandleFunc("POST /api/games/{id}/monsters", s.handleSpawnMonster)
	mux.HandleFunc("GET /api/games/{id}/events", s.handleEvents)

	s.http = &http.Server{
		Addr:    addr,
		Handler: withCORS(mux),
	}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests, bounded by shutdownTimeout.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}

// withCORS allows browser clients on any origin; the API carries no
// credentials.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "name is required")
		return
	}
	if req.Capacity <= 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "capacity must be positive")
		return
	}
	s.writeJSON(w, http.StatusCreated, s.svc.CreateSession(req.Name, req.Capacity))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.ListSessions())
}

type joinRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	e, err := s.svc.Join(r.PathValue("id"), req.Name)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e)
}

type leaveRequest struct {
	EntityID string `json:"entityId"`
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.svc.Leave(r.PathValue("id"), req.EntityID); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.StartSession(r.PathValue("id")); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			s.writeSessionError(w, err)
			return
		}
		s.writeError(w, http.StatusConflict, "already_started", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.PathValue("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := s.svc.SubmitAction(r.PathValue("id"), req)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

type spawnRequest struct {
	TemplateID string `json:"templateId"`
}

func (s *Server) handleSpawnMonster(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	e, err := s.svc.SpawnMonster(r.PathValue("id"), req.TemplateID)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, e)
}

// handleEvents streams state frames for one session as server-sent events.
// The first frame is always the current full state.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := s.svc.Snapshot(id)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "internal_error", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frames, cancel := s.hub.Subscribe(id)
	defer cancel()

	initial, err := json.Marshal(stateFrame{State: snap})
	if err != nil {
		s.logger.Error("initial frame marshal failed", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case payload, ok := <-frames:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeSessionError maps a game error onto its HTTP status and stable wire
// code.
func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTemplateNotFound) {
		s.writeError(w, http.StatusNotFound, "template_not_found", err.Error())
		return
	}
	code := session.ErrorCode(err)
	s.writeError(w, statusFor(err), code, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrActorNotFound),
		errors.Is(err, session.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSessionFull),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrActorDead),
		errors.Is(err, session.ErrTargetDead),
		errors.Is(err, session.ErrNotDead),
		errors.Is(err, session.ErrOccupied):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownAction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, errorBody{Error: code, Message: msg})
}
