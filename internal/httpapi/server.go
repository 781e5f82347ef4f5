package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hindihour/neha/internal/brain"
	"github.com/hindihour/neha/internal/config"
	"github.com/hindihour/neha/internal/observability"
	"github.com/hindihour/neha/internal/protocol"
	"github.com/hindihour/neha/internal/session"
	"github.com/hindihour/neha/internal/userlog"
)

// ChatEngine is the turn pipeline the server drives.
type ChatEngine interface {
	Respond(ctx context.Context, sessionID, utterance string) (brain.Reply, error)
	ConfirmName(ctx context.Context, sessionID, name string) (string, error)
	LastReply(ctx context.Context, sessionID string) (string, error)
}

// Synthesizer renders reply text as audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, string, error)
}

type Server struct {
	cfg         config.Config
	sessions    *session.Manager
	engine      ChatEngine
	synthesizer Synthesizer
	users       userlog.Store
	metrics     *observability.Metrics
	upgrader    websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, engine ChatEngine, synthesizer Synthesizer, users userlog.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:         cfg,
		sessions:    sessions,
		engine:      engine,
		synthesizer: synthesizer,
		users:       users,
		metrics:     metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive a user's chat
				// session if the service is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Post("/v1/chat/session/{id}/confirm-name", s.handleConfirmName)
	r.Post("/v1/chat/session/{id}/message", s.handleMessage)
	r.Post("/v1/chat/session/{id}/voice", s.handleVoice)
	r.Post("/v1/chat/session/{id}/end", s.handleEndSession)
	r.Get("/v1/chat/session/ws", s.handleSessionWS)
	r.Get("/v1/admin/users", s.handleListUsers)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	sess := s.sessions.Create()
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("created").Inc()

	resp := session.CreateResponse{
		SessionID:       sess.ID,
		Status:          sess.Status,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	}

	if name := strings.TrimSpace(req.UserName); name != "" {
		greeting, err := s.confirmName(r.Context(), sess.ID, name)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
			return
		}
		updated, _ := s.sessions.Get(sess.ID)
		resp.UserName = updated.UserName
		resp.Greeting = greeting
	}

	respondJSON(w, http.StatusCreated, resp)
}

type confirmNameRequest struct {
	Name string `json:"name"`
}

type confirmNameResponse struct {
	UserName string `json:"user_name"`
	Greeting string `json:"greeting"`
}

func (s *Server) handleConfirmName(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	var req confirmNameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_name", "name is required")
		return
	}

	greeting, err := s.confirmName(r.Context(), id, req.Name)
	if errors.Is(err, session.ErrNameConfirmed) {
		respondError(w, http.StatusConflict, "name_confirmed", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
		return
	}

	sess, _ := s.sessions.Get(id)
	respondJSON(w, http.StatusOK, confirmNameResponse{UserName: sess.UserName, Greeting: greeting})
}

// confirmName runs the full confirmation chain: engine memory write, session
// metadata, and the audit log. The audit row is written only on the first
// confirmation.
func (s *Server) confirmName(ctx context.Context, sessionID, name string) (string, error) {
	greeting, err := s.engine.ConfirmName(ctx, sessionID, name)
	if err != nil {
		return "", err
	}
	if err := s.sessions.ConfirmName(sessionID, name); err != nil {
		return "", err
	}
	if s.users != nil {
		if err := s.users.Record(ctx, name, sessionID); err != nil {
			s.metrics.ProviderErrors.WithLabelValues("userlog", "record").Inc()
		}
	}
	s.metrics.SessionEvents.WithLabelValues("name_confirmed").Inc()
	return greeting, nil
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
	Source    string `json:"source"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req messageRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	release, err := s.sessions.BeginTurn(id)
	if errors.Is(err, session.ErrTurnInFlight) {
		respondError(w, http.StatusConflict, "turn_in_flight", err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	defer release()

	reply, err := s.engine.Respond(r.Context(), id, req.Text)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "turn_failed", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, messageResponse{
		SessionID: id,
		Reply:     reply.Text,
		Source:    reply.Source,
	})
}

type voiceRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.synthesizer == nil {
		respondError(w, http.StatusNotImplemented, "voice_disabled", "no synthesizer configured")
		return
	}

	var req voiceRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		last, err := s.engine.LastReply(r.Context(), id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "memory_unavailable", err.Error())
			return
		}
		if last == "" {
			respondError(w, http.StatusBadRequest, "no_reply_yet", "session has no reply to speak")
			return
		}
		text = last
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SynthesisTimeout)
	defer cancel()

	audio, format, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "voice_unavailable", err.Error())
		return
	}

	w.Header().Set("Content-Type", format)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues("ended").Inc()
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.users == nil {
		respondError(w, http.StatusNotImplemented, "userlog_disabled", "no user log configured")
		return
	}

	limit := 100
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.users.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "userlog_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": entries})
}

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "query parameter session_id is required")
		return
	}
	if _, err := s.sessions.Get(sessionID); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.SessionEvents.WithLabelValues("ws_connected").Inc()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	send := func(msg any) {
		select {
		case outbound <- msg:
		default:
			// Keep websocket writes single-threaded; drop if the outbound
			// queue is saturated.
		}
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			send(protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				SessionID: sessionID,
				Code:      "invalid_client_message",
				Retryable: false,
				Detail:    err.Error(),
			})
			continue
		}

		switch msg := parsed.(type) {
		case protocol.Ping:
			send(protocol.Pong{Type: protocol.TypePong, SessionID: sessionID})
		case protocol.UserMessage:
			// The connection is bound to one session; a differing payload
			// session_id is a client bug, not a rebind.
			if msg.SessionID != "" && msg.SessionID != sessionID {
				send(protocol.ErrorEvent{
					Type:      protocol.TypeErrorEvent,
					SessionID: sessionID,
					Code:      "session_mismatch",
					Retryable: false,
					Detail:    "payload session_id does not match this connection",
				})
				continue
			}
			send(s.runTurn(ctx, sessionID, msg.Text))
		}

		if ctx.Err() != nil {
			break
		}
	}

	cancel()
	<-writerDone
	s.metrics.SessionEvents.WithLabelValues("ws_disconnected").Inc()
}

// runTurn executes one websocket turn under the session turn lock.
func (s *Server) runTurn(ctx context.Context, sessionID, text string) any {
	release, err := s.sessions.BeginTurn(sessionID)
	if errors.Is(err, session.ErrTurnInFlight) {
		return protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      "turn_in_flight",
			Retryable: true,
			Detail:    err.Error(),
		}
	}
	if err != nil {
		return protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      "session_not_found",
			Retryable: false,
			Detail:    err.Error(),
		}
	}
	defer release()

	reply, err := s.engine.Respond(ctx, sessionID, text)
	if err != nil {
		return protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			SessionID: sessionID,
			Code:      "turn_failed",
			Retryable: true,
			Detail:    err.Error(),
		}
	}
	return protocol.BotReply{
		Type:      protocol.TypeBotReply,
		SessionID: sessionID,
		Text:      reply.Text,
		Source:    reply.Source,
		TSMs:      time.Now().UnixMilli(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
