package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	chatinfra "github.com/jakerains/Rivertown-v2-aws/internal/chat/infra"
	"github.com/jakerains/Rivertown-v2-aws/internal/chat/service"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/handler"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

// --- Port fakes ---

type fakeModel struct{ reply string }

func (f *fakeModel) Generate(_ context.Context, _ string) (string, error) { return f.reply, nil }

type fakeKB struct{}

func (f *fakeKB) Query(_ context.Context, _ string) (string, error) { return "", nil }

type fakeOrders struct {
	orders []domain.Order
	found  bool
}

func (f *fakeOrders) GetCustomerOrders(_ context.Context, _, _ string) ([]domain.Order, bool, error) {
	return f.orders, f.found, nil
}

type fakeCalls struct{}

func (f *fakeCalls) PlaceCall(_ context.Context, _ *domain.CallRequest) error { return nil }

func newTestRouter(orders *fakeOrders) http.Handler {
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	svc := service.NewChatService(&fakeModel{reply: "Hello from Sara!"}, &fakeKB{}, orders, &fakeCalls{}, metrics, logger)
	sessions := chatinfra.NewSessionStore(time.Minute, metrics, logger)
	return handler.NewRouter(svc, sessions, metrics, logger)
}

// --- Operational endpoints ---

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeOrders{found: true})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAssistantMetricsSnapshot(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/assistant", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap domain.AssistantMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot body: %v", err)
	}
}

// --- Chat surface ---

func TestChatRoute(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	body := bytes.NewBufferString(`{"message": "do you sell croquet balls?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", body)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string `json:"sessionId"`
		Reply     struct {
			Content string `json:"content"`
		} `json:"reply"`
		Stage string `json:"stage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("expected a session id in the response")
	}
	if resp.Reply.Content != "Hello from Sara!" {
		t.Errorf("unexpected reply: %q", resp.Reply.Content)
	}
	if resp.Stage != "idle" {
		t.Errorf("expected stage idle, got %q", resp.Stage)
	}
}

func TestChatRoute_MissingMessage(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatHistory_UnknownSession(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/nope/history", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// --- Direct order lookup ---

func TestOrdersRoute(t *testing.T) {
	orders := &fakeOrders{
		found: true,
		orders: []domain.Order{
			{ID: "ORD-1001", Product: "Maple Croquet Ball", Quantity: 4, Date: "March 7, 2024", TotalPrice: 59.96},
		},
	}
	router := newTestRouter(orders)

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/orders?firstName=Jane&lastName=Doe", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.Orders) != 1 || resp.Orders[0].ID != "ORD-1001" {
		t.Errorf("unexpected orders payload: %+v", resp.Orders)
	}
}

func TestOrdersRoute_UnknownCustomer(t *testing.T) {
	router := newTestRouter(&fakeOrders{found: false})

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/orders?firstName=Ghost&lastName=Customer", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestOrdersRoute_MissingParams(t *testing.T) {
	router := newTestRouter(&fakeOrders{})

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/orders?firstName=Jane", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
