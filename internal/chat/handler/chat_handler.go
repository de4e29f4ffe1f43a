// Package handler — chat_handler.go implements the conversational HTTP
// surface: POST /v1/chat, POST /v1/chat/reset and the transcript route.
//
// ============================================================
// CONTRACT
// ============================================================
//
// POST /v1/chat
//
//	Request:  {"sessionId": "optional", "message": "do you ship to Ohio?"}
//	Response: {"sessionId": "...", "reply": {"kind": "markdown", "content": "..."},
//	           "stage": "idle"}
//
// An absent or expired sessionId transparently opens a fresh session, so the
// frontend never has to handle a "session not found" case on this route.
// Provider failures never surface here either — the reply body carries the
// fixed apology sentence and the status stays 200.
//
// We use POST (not GET) because reverse proxies commonly strip bodies from
// GET requests.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/port"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	maindomain "github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// tracer is the OpenTelemetry tracer for the chat/handler module.
var tracer = otel.Tracer("chat/handler")

// chatRequest is the POST /v1/chat body.
type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// chatResponse is the POST /v1/chat reply.
type chatResponse struct {
	SessionID string            `json:"sessionId"`
	Reply     *chatdomain.Reply `json:"reply"`
	Stage     chatdomain.Stage  `json:"stage"`
}

// ============================================================
// ChatHandler — POST /v1/chat
// ============================================================

// ChatHandler returns the http.HandlerFunc for POST /v1/chat.
//
// The handler is thin: load-or-create the session, delegate the turn to the
// ChatService, persist, reply. All dialogue logic lives in the service.
func ChatHandler(chatSvc *service.ChatService, sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/chat")
		defer span.End()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: expected {\"message\": \"your message\"}")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		sess := sessions.Get(req.SessionID)
		span.SetAttributes(attribute.String("session.id", sess.ID))

		reply := chatSvc.ProcessMessage(ctx, sess, req.Message)
		sessions.Put(sess)

		writeJSON(w, http.StatusOK, &chatResponse{
			SessionID: sess.ID,
			Reply:     reply,
			Stage:     stageLabel(sess.Stage),
		})
	}
}

// ============================================================
// ResetHandler — POST /v1/chat/reset
// ============================================================

// resetRequest is the POST /v1/chat/reset body.
type resetRequest struct {
	SessionID string `json:"sessionId"`
}

// ResetHandler drops the session so the next message starts a fresh
// conversation. Resetting an unknown session is a no-op, not an error.
func ResetHandler(sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/chat/reset")
		defer span.End()

		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			writeError(w, http.StatusBadRequest, "sessionId is required")
			return
		}

		sessions.Delete(req.SessionID)
		logger.Info("session reset", zap.String("session_id", req.SessionID))
		writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}

// ============================================================
// HistoryHandler — GET /v1/chat/{sessionId}/history
// ============================================================

// HistoryHandler returns the transcript of an existing session.
func HistoryHandler(sessions port.SessionStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/chat/{sessionId}/history")
		defer span.End()

		id := chi.URLParam(r, "sessionId")
		sess, ok := sessions.Lookup(id)
		if !ok {
			handleServiceError(w, &maindomain.ErrNotFound{Resource: "session", ID: id}, logger)
			return
		}

		writeJSON(w, http.StatusOK, sess)
	}
}

// stageLabel maps the zero-value stage to its explicit name for the wire.
func stageLabel(s chatdomain.Stage) chatdomain.Stage {
	if s == "" {
		return chatdomain.StageIdle
	}
	return s
}

// ============================================================
// Helpers — shared response utilities for this package
// ============================================================

// writeJSON serializes data as JSON into the response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a standardized error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch e := err.(type) {
	case *maindomain.ErrExternalService:
		logger.Error("external service error", zap.String("service", e.Service), zap.Error(e.Err))
		writeError(w, http.StatusBadGateway, "external service unavailable: "+e.Service)
	case *maindomain.ErrNotFound:
		writeError(w, http.StatusNotFound, e.Error())
	case *maindomain.ErrValidation:
		writeError(w, http.StatusUnprocessableEntity, e.Error())
	default:
		logger.Error("unexpected error in chat handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
