// Package service — chat_callflow.go implements the call-collection stages.
//
// ============================================================
// CALLBACK FLOW — two collection stages
// ============================================================
//
// When the model emits a phone_request signal the session walks through a
// short multi-step journey before returning to idle:
//
//	Stage awaiting_name  → the next message IS the first name
//	Stage awaiting_phone → the next message IS the phone number
//
// Collection is deliberately forgiving: the name is accepted verbatim with no
// validation, and a phone number that cannot be normalized is still submitted
// as typed. The provider is the arbiter of what is dialable — exactly one
// placement request goes out per phone turn, and the session returns to idle
// whatever the outcome.
package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// captureName handles a turn in the awaiting_name stage. Whatever the
// customer typed becomes the first name, and the flow moves on to the phone
// number.
func (s *ChatService) captureName(ctx context.Context, sess *chatdomain.Session, input string) *chatdomain.Reply {
	_, span := chatTracer.Start(ctx, "ChatService.captureName")
	defer span.End()

	sess.FirstName = input
	sess.Stage = chatdomain.StageAwaitingPhone

	s.logger.Info("callback name captured", zap.String("session_id", sess.ID))
	return &chatdomain.Reply{Kind: "text", Content: askPhoneMessage}
}

// placeCall handles a turn in the awaiting_phone stage: normalize the number
// when possible, submit exactly one placement request, and return to idle
// regardless of the outcome. The captured name and phone are cleared either
// way — a failed placement does not leave the session stuck mid-flow.
func (s *ChatService) placeCall(ctx context.Context, sess *chatdomain.Session, input string) *chatdomain.Reply {
	ctx, span := chatTracer.Start(ctx, "ChatService.placeCall")
	defer span.End()

	phone, ok := NormalizePhone(input)
	if !ok {
		// Not a recognized format; submit as typed and let the provider
		// reject it. Still exactly one attempt.
		phone = input
	}
	span.SetAttributes(attribute.Bool("phone.normalized", ok))

	req := &domain.CallRequest{
		PhoneNumber: phone,
		FirstName:   sess.FirstName,
	}
	err := s.calls.PlaceCall(ctx, req)

	sess.Stage = chatdomain.StageIdle
	sess.FirstName = ""
	sess.Phone = ""

	if err != nil {
		s.logger.Error("callback placement failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		return &chatdomain.Reply{Kind: "text", Content: callFailedMessage}
	}
	return &chatdomain.Reply{Kind: "text", Content: callPlacedMessage}
}
