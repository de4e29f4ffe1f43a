// Package domain — chat.go defines the types for the conversational flow.
//
// The chat surface is a small dialogue state machine. A session normally sits
// in the idle stage, where messages go through knowledge-base retrieval and
// the language model. When the model decides the customer wants a callback it
// emits a phone_request signal, which walks the session through two collection
// stages (name, then phone) before a call is placed and the session returns
// to idle.
package domain

import "time"

// ============================================================
// Stage — the dialogue state machine
// ============================================================

// Stage is the current position of a session in the call-collection flow.
type Stage string

const (
	// StageIdle is the default conversational stage: messages go through
	// knowledge retrieval and the model. The zero value of Stage is "",
	// which is treated as idle everywhere.
	StageIdle Stage = "idle"

	// StageAwaitingName means the next message is captured verbatim as the
	// customer's first name.
	StageAwaitingName Stage = "awaiting_name"

	// StageAwaitingPhone means the next message is treated as the phone
	// number and triggers exactly one call placement.
	StageAwaitingPhone Stage = "awaiting_phone"
)

// ============================================================
// Session — one conversation with one customer
// ============================================================

// Session holds one customer conversation. Messages are append-only; the
// stage and the captured name/phone drive the call-collection flow.
//
// A session is only ever touched by the handler goroutine serving its
// current turn, so it carries no locking.
type Session struct {
	ID        string    `json:"sessionId"`
	Messages  []Message `json:"messages"`
	Stage     Stage     `json:"stage"`
	FirstName string    `json:"-"`
	Phone     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Append adds a message to the transcript.
func (s *Session) Append(m Message) {
	s.Messages = append(s.Messages, m)
}

// Message is one transcript entry.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Kind      string    `json:"kind"` // "text" or "markdown"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Reply is what one processed turn hands back to the caller.
type Reply struct {
	Kind    string `json:"kind"` // "text" or "markdown"
	Content string `json:"content"`
}

// ============================================================
// PhoneRequest — the model's embedded callback signal
// ============================================================

// PhoneRequest is the JSON object the model embeds in its reply when the
// customer asks to be called. Only a well-formed object with
// Type == "phone_request" triggers the collection flow; anything else in the
// model text is shown to the customer as-is.
type PhoneRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Stage   string `json:"stage"`
}
