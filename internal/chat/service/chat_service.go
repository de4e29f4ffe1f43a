// Package service — chat_service.go implements the ChatService.
//
// ============================================================
// ARCHITECTURE — dialogue router with explicit stages
// ============================================================
//
// The ChatService is the central orchestrator of POST /v1/chat. Every turn is
// routed on the session's current stage:
//
//	idle           → order-lookup phrase match first, otherwise the general
//	                 path (knowledge base → model → phone_request scan)
//	awaiting_name  → capture the first name, ask for the phone number
//	awaiting_phone → place exactly one callback call, return to idle
//
// Two rules shape the error handling here:
//  1. A turn never fails. Provider errors are logged, counted and converted
//     into fixed user-facing sentences; POST /v1/chat always returns 200.
//  2. Every external call is attempted exactly once per turn. A failed call
//     placement still consumes the collected name and phone.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/port"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

// chatTracer is the OpenTelemetry tracer for the chat module.
var chatTracer = otel.Tracer("chat/service")

// Fixed user-facing sentences. These are part of the conversational contract
// with the frontend and must not be reworded casually.
const (
	WelcomeMessage = "Welcome to Rivertown Ball Company! How can I help you today?"

	askPhoneMessage = "Great! Now, could you please provide your phone number?"

	callPlacedMessage = "Great! I'm connecting you with Sara right now. You should receive a call shortly."

	callFailedMessage = "I apologize, but I'm having trouble connecting the call. Please try again."

	modelUnavailableMessage = "I apologize, but I'm having trouble connecting. Please try again."

	orderLookupFailedMessage = "I apologize, but I encountered an error while looking up the orders. Please try again."
)

// ============================================================
// ChatService — stage router
// ============================================================

// ChatService routes chat turns through the dialogue state machine.
type ChatService struct {
	model   port.ModelInvoker
	kb      port.KnowledgeRetriever
	orders  port.OrderFetcher
	calls   port.CallPlacer
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService creates the ChatService with its dependencies injected.
func NewChatService(
	model port.ModelInvoker,
	kb port.KnowledgeRetriever,
	orders port.OrderFetcher,
	calls port.CallPlacer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		model:   model,
		kb:      kb,
		orders:  orders,
		calls:   calls,
		metrics: metrics,
		logger:  logger,
	}
}

// ProcessMessage handles one turn of the conversation: it appends the user
// message to the transcript, routes on the session stage, appends the reply
// and returns it. The turn fully resolves (including any outbound call)
// before this returns.
func (s *ChatService) ProcessMessage(ctx context.Context, sess *chatdomain.Session, input string) *chatdomain.Reply {
	ctx, span := chatTracer.Start(ctx, "ChatService.ProcessMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sess.ID),
		attribute.String("session.stage", string(sess.Stage)),
	)

	start := time.Now()
	sess.Append(newMessage("user", "text", input))

	var reply *chatdomain.Reply
	switch sess.Stage {
	case chatdomain.StageAwaitingName:
		reply = s.captureName(ctx, sess, input)
	case chatdomain.StageAwaitingPhone:
		reply = s.placeCall(ctx, sess, input)
	default:
		// "" (zero value) and "idle" both land here.
		reply = s.handleIdle(ctx, sess, input)
	}

	sess.Append(newMessage("assistant", reply.Kind, reply.Content))
	s.metrics.RecordRequestDuration("chat_turn", time.Since(start))
	return reply
}

// handleIdle processes a turn in the idle stage: an order-lookup phrase wins
// first; everything else takes the general knowledge-base + model path.
func (s *ChatService) handleIdle(ctx context.Context, sess *chatdomain.Session, input string) *chatdomain.Reply {
	if first, last, ok := ExtractOrderLookup(input); ok {
		return s.lookupOrdersReply(ctx, first, last)
	}
	return s.generalQuery(ctx, sess, input)
}

// generalQuery is the default path: retrieve context from the knowledge base,
// ask the model, and scan the reply for an embedded phone_request signal.
func (s *ChatService) generalQuery(ctx context.Context, sess *chatdomain.Session, input string) *chatdomain.Reply {
	ctx, span := chatTracer.Start(ctx, "ChatService.generalQuery")
	defer span.End()

	// Knowledge-base failure is soft: the turn proceeds without context.
	kbContext, err := s.kb.Query(ctx, input)
	if err != nil {
		s.logger.Warn("knowledge base query failed, continuing without context",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		kbContext = ""
	}

	answer, err := s.model.Generate(ctx, buildPrompt(kbContext, input))
	if err != nil {
		s.logger.Error("model generation failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		s.metrics.IncrRequest("error")
		return &chatdomain.Reply{Kind: "text", Content: modelUnavailableMessage}
	}
	s.metrics.IncrRequest("success")

	// The model may embed a phone_request JSON object anywhere in its text.
	// A well-formed signal starts the collection flow and only its message
	// field is shown; malformed or absent JSON is ignored silently.
	if req, ok := ExtractPhoneRequest(answer); ok {
		sess.Stage = chatdomain.StageAwaitingName
		return &chatdomain.Reply{Kind: "text", Content: req.Message}
	}

	return &chatdomain.Reply{Kind: "markdown", Content: answer}
}

// buildPrompt assembles the model prompt from retrieved context and the
// customer's message. An empty context string becomes an explicit
// "no additional context" marker so the model does not hallucinate sources.
func buildPrompt(kbContext, input string) string {
	if kbContext == "" {
		kbContext = "No additional context available."
	}
	return "Context:\n" + kbContext + "\n\nCustomer Query:\n" + input
}

// newMessage builds a transcript entry.
func newMessage(role, kind, content string) chatdomain.Message {
	return chatdomain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
