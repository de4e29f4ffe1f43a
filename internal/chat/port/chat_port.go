// Package port — chat_port.go defines the interfaces (ports) the dialogue
// service depends on.
//
// Following the hexagonal layout, the ChatService depends on these interfaces
// and NOT on the concrete AWS/Bland clients. That keeps the state machine
// testable with hand-written fakes.
package port

import (
	"context"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// ModelInvoker generates a model reply for an already-assembled prompt.
// Implemented by the Bedrock runtime client.
type ModelInvoker interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// KnowledgeRetriever answers a query from the knowledge base. An empty
// string means "no context available" and is never an error.
type KnowledgeRetriever interface {
	Query(ctx context.Context, query string) (string, error)
}

// OrderFetcher looks up a customer's order history. The boolean reports
// whether the customer exists: (nil, false, nil) is an unknown customer,
// (empty, true, nil) a known customer with zero orders.
type OrderFetcher interface {
	GetCustomerOrders(ctx context.Context, firstName, lastName string) ([]domain.Order, bool, error)
}

// CallPlacer submits one outbound call-placement request.
type CallPlacer interface {
	PlaceCall(ctx context.Context, req *domain.CallRequest) error
}

// SessionStore holds live conversations keyed by session id.
type SessionStore interface {
	// Get returns the session for id, or creates a fresh one (with the
	// welcome message) when id is empty or unknown.
	Get(id string) *chatdomain.Session

	// Lookup returns an existing session without creating one.
	Lookup(id string) (*chatdomain.Session, bool)

	// Put saves the session and refreshes its TTL.
	Put(sess *chatdomain.Session)

	// Delete removes the session (explicit reset).
	Delete(id string)
}
