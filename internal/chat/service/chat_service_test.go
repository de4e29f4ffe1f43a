package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

// --- Mocks ---

type mockModel struct {
	reply string
	err   error
	calls int
}

func (m *mockModel) Generate(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.reply, m.err
}

type mockKB struct {
	context string
	err     error
}

func (m *mockKB) Query(_ context.Context, _ string) (string, error) {
	return m.context, m.err
}

type mockOrders struct {
	orders    []domain.Order
	found     bool
	err       error
	lastFirst string
	lastLast  string
}

func (m *mockOrders) GetCustomerOrders(_ context.Context, first, last string) ([]domain.Order, bool, error) {
	m.lastFirst, m.lastLast = first, last
	return m.orders, m.found, m.err
}

type mockCalls struct {
	err     error
	placed  int
	lastReq *domain.CallRequest
}

func (m *mockCalls) PlaceCall(_ context.Context, req *domain.CallRequest) error {
	m.placed++
	m.lastReq = req
	return m.err
}

func newService(model *mockModel, kb *mockKB, orders *mockOrders, calls *mockCalls) *service.ChatService {
	return service.NewChatService(model, kb, orders, calls, observability.NewMetrics(), zap.NewNop())
}

func newSession(stage chatdomain.Stage) *chatdomain.Session {
	return &chatdomain.Session{ID: "sess-1", Stage: stage, CreatedAt: time.Now()}
}

// --- Call-collection flow ---

func TestProcessMessage_AwaitingPhone_PlacesExactlyOneCall(t *testing.T) {
	inputs := []string{"555-123-4567", "call me whenever", "", "++++"}
	for _, input := range inputs {
		calls := &mockCalls{}
		svc := newService(&mockModel{}, &mockKB{}, &mockOrders{}, calls)
		sess := newSession(chatdomain.StageAwaitingPhone)
		sess.FirstName = "Jane"

		svc.ProcessMessage(context.Background(), sess, input)

		if calls.placed != 1 {
			t.Errorf("input %q: expected exactly 1 call placement, got %d", input, calls.placed)
		}
		if sess.Stage != chatdomain.StageIdle {
			t.Errorf("input %q: expected stage idle after placement, got %q", input, sess.Stage)
		}
	}
}

func TestProcessMessage_AwaitingPhone_FailureStillReturnsToIdle(t *testing.T) {
	calls := &mockCalls{err: errors.New("status 400")}
	svc := newService(&mockModel{}, &mockKB{}, &mockOrders{}, calls)
	sess := newSession(chatdomain.StageAwaitingPhone)
	sess.FirstName = "Jane"

	reply := svc.ProcessMessage(context.Background(), sess, "not a phone number")

	if calls.placed != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls.placed)
	}
	if sess.Stage != chatdomain.StageIdle {
		t.Errorf("expected stage idle after failure, got %q", sess.Stage)
	}
	if !strings.Contains(reply.Content, "trouble connecting the call") {
		t.Errorf("expected call-failure apology, got %q", reply.Content)
	}
	if sess.FirstName != "" {
		t.Error("expected captured name cleared after placement")
	}
}

func TestProcessMessage_AwaitingPhone_NormalizesNumber(t *testing.T) {
	calls := &mockCalls{}
	svc := newService(&mockModel{}, &mockKB{}, &mockOrders{}, calls)
	sess := newSession(chatdomain.StageAwaitingPhone)
	sess.FirstName = "Jane"

	svc.ProcessMessage(context.Background(), sess, "(555) 123-4567")

	if calls.lastReq == nil {
		t.Fatal("expected a call placement request")
	}
	if calls.lastReq.PhoneNumber != "+15551234567" {
		t.Errorf("expected normalized number, got %q", calls.lastReq.PhoneNumber)
	}
	if calls.lastReq.FirstName != "Jane" {
		t.Errorf("expected captured name on request, got %q", calls.lastReq.FirstName)
	}
}

func TestProcessMessage_AwaitingName_CapturesVerbatim(t *testing.T) {
	svc := newService(&mockModel{}, &mockKB{}, &mockOrders{}, &mockCalls{})
	sess := newSession(chatdomain.StageAwaitingName)

	reply := svc.ProcessMessage(context.Background(), sess, "jane")

	if sess.FirstName != "jane" {
		t.Errorf("expected name captured verbatim, got %q", sess.FirstName)
	}
	if sess.Stage != chatdomain.StageAwaitingPhone {
		t.Errorf("expected stage awaiting_phone, got %q", sess.Stage)
	}
	if !strings.Contains(reply.Content, "phone number") {
		t.Errorf("expected phone prompt, got %q", reply.Content)
	}
}

// --- Phone-request signal ---

func TestProcessMessage_PhoneRequestSignalStartsCollection(t *testing.T) {
	model := &mockModel{reply: `Sure thing! {"type": "phone_request", "message": "I'd love to call you! What's your first name?", "stage": "name"}`}
	svc := newService(model, &mockKB{}, &mockOrders{}, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "can you call me?")

	if sess.Stage != chatdomain.StageAwaitingName {
		t.Errorf("expected stage awaiting_name, got %q", sess.Stage)
	}
	if reply.Content != "I'd love to call you! What's your first name?" {
		t.Errorf("expected only the signal message displayed, got %q", reply.Content)
	}
}

func TestProcessMessage_MalformedSignalIsIgnored(t *testing.T) {
	for _, answer := range []string{
		"We sell handcrafted wooden balls in maple, oak and walnut.",
		`Almost a signal: {"type": "phone_request", "message": `,
		`An unrelated object: {"type": "greeting", "message": "hi"}`,
	} {
		model := &mockModel{reply: answer}
		svc := newService(model, &mockKB{}, &mockOrders{}, &mockCalls{})
		sess := newSession(chatdomain.StageIdle)

		reply := svc.ProcessMessage(context.Background(), sess, "tell me about your products")

		if sess.Stage != chatdomain.StageIdle {
			t.Errorf("answer %q: expected stage to remain idle, got %q", answer, sess.Stage)
		}
		if reply.Content != answer {
			t.Errorf("answer %q: expected raw text displayed, got %q", answer, reply.Content)
		}
	}
}

// --- General path failure handling ---

func TestProcessMessage_ModelFailureBecomesApology(t *testing.T) {
	model := &mockModel{err: errors.New("throttled")}
	svc := newService(model, &mockKB{}, &mockOrders{}, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "hello")

	if !strings.Contains(reply.Content, "trouble connecting") {
		t.Errorf("expected apology, got %q", reply.Content)
	}
	if sess.Stage != chatdomain.StageIdle {
		t.Errorf("expected stage to remain idle, got %q", sess.Stage)
	}
}

func TestProcessMessage_KBFailureIsSoft(t *testing.T) {
	model := &mockModel{reply: "We ship everywhere in the continental US."}
	kb := &mockKB{err: errors.New("kb unavailable")}
	svc := newService(model, kb, &mockOrders{}, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "do you ship to Ohio?")

	if model.calls != 1 {
		t.Errorf("expected model still invoked once, got %d", model.calls)
	}
	if reply.Content != "We ship everywhere in the continental US." {
		t.Errorf("unexpected reply: %q", reply.Content)
	}
}

// --- Order lookup ---

func TestProcessMessage_OrderLookup(t *testing.T) {
	orders := &mockOrders{
		found: true,
		orders: []domain.Order{
			{ID: "ORD-1001", Product: "Maple Croquet Ball", Quantity: 4, Date: "March 7, 2024", TotalPrice: 59.96},
		},
	}
	model := &mockModel{reply: "should not be called"}
	svc := newService(model, &mockKB{}, orders, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "show orders for jane doe")

	if orders.lastFirst != "Jane" || orders.lastLast != "Doe" {
		t.Errorf("expected title-cased (Jane, Doe), got (%q, %q)", orders.lastFirst, orders.lastLast)
	}
	if model.calls != 0 {
		t.Error("order lookup must not reach the model")
	}
	if reply.Kind != "markdown" || !strings.Contains(reply.Content, "ORD-1001") {
		t.Errorf("expected order markdown, got %q", reply.Content)
	}
}

func TestProcessMessage_OrderLookupZeroOrders(t *testing.T) {
	orders := &mockOrders{found: true, orders: []domain.Order{}}
	svc := newService(&mockModel{}, &mockKB{}, orders, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "orders for Jane Doe")

	if !strings.Contains(reply.Content, "0 orders") {
		t.Errorf("expected explicit 0-orders display, got %q", reply.Content)
	}
}

func TestProcessMessage_OrderLookupUnknownCustomer(t *testing.T) {
	orders := &mockOrders{found: false}
	svc := newService(&mockModel{}, &mockKB{}, orders, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "orders for ghost customer")

	if !strings.Contains(reply.Content, "couldn't find any orders for Ghost Customer") {
		t.Errorf("expected not-found message with title-cased name, got %q", reply.Content)
	}
}

func TestProcessMessage_OrderLookupSingleTokenFallsThrough(t *testing.T) {
	model := &mockModel{reply: "General answer."}
	orders := &mockOrders{found: true}
	svc := newService(model, &mockKB{}, orders, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "orders for Jane")

	if model.calls != 1 {
		t.Errorf("expected fall-through to general path, model calls = %d", model.calls)
	}
	if reply.Content != "General answer." {
		t.Errorf("unexpected reply: %q", reply.Content)
	}
}

func TestProcessMessage_OrderStoreErrorBecomesApology(t *testing.T) {
	orders := &mockOrders{err: errors.New("scan failed")}
	svc := newService(&mockModel{}, &mockKB{}, orders, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	reply := svc.ProcessMessage(context.Background(), sess, "orders for Jane Doe")

	if !strings.Contains(reply.Content, "error while looking up the orders") {
		t.Errorf("expected lookup apology, got %q", reply.Content)
	}
}

// --- Transcript ---

func TestProcessMessage_AppendsTranscript(t *testing.T) {
	model := &mockModel{reply: "Hi there!"}
	svc := newService(model, &mockKB{}, &mockOrders{}, &mockCalls{})
	sess := newSession(chatdomain.StageIdle)

	svc.ProcessMessage(context.Background(), sess, "hello")

	if len(sess.Messages) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(sess.Messages))
	}
	if sess.Messages[0].Role != "user" || sess.Messages[1].Role != "assistant" {
		t.Errorf("unexpected transcript roles: %+v", sess.Messages)
	}
}
