package bland

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/resilience"
)

func newTestClient(t *testing.T, baseURL string) *CallClient {
	t.Helper()
	c, err := NewCallClient(http.DefaultClient, baseURL, "test-key",
		resilience.NewCircuitBreaker("bland-test"), observability.NewMetrics(), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return c
}

func TestPlaceCall_SendsExpectedPayload(t *testing.T) {
	var got callPayload
	var auth string
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		auth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost || r.URL.Path != "/v1/calls" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.PlaceCall(context.Background(), &domain.CallRequest{
		PhoneNumber: "+15551234567",
		FirstName:   "Jane",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected exactly one placement request, got %d", calls)
	}
	if auth != "Bearer test-key" {
		t.Errorf("unexpected auth header: %q", auth)
	}
	if got.PhoneNumber != "+15551234567" {
		t.Errorf("unexpected phone number: %q", got.PhoneNumber)
	}
	if got.FirstSentence != "Hello, is this Jane?" {
		t.Errorf("unexpected first sentence: %q", got.FirstSentence)
	}
	if !got.WaitForGreeting {
		t.Error("expected wait_for_greeting to be set")
	}
	if got.Voice != "alexa" || got.Model != "turbo" || got.MaxDuration != 8 {
		t.Errorf("unexpected call settings: %+v", got)
	}
}

func TestPlaceCall_Non200IsError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.PlaceCall(context.Background(), &domain.CallRequest{
		PhoneNumber: "not a number",
		FirstName:   "Jane",
	})
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) || extErr.Service != "bland" {
		t.Errorf("expected bland external service error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", calls)
	}
}

func TestNewCallClient_RequiresAPIKey(t *testing.T) {
	_, err := NewCallClient(http.DefaultClient, "https://api.bland.ai", "",
		resilience.NewCircuitBreaker("bland-test"), observability.NewMetrics(), zap.NewNop())
	if err == nil {
		t.Fatal("expected missing-config error")
	}
}
