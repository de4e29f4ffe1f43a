// Package bland places outbound callback calls via the Bland.ai voice API.
package bland

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

var tracer = otel.Tracer("infra/bland")

const (
	callTask = "You are Sara from Rivertown Ball Company. Be friendly and " +
		"professional while helping customers with wooden craft balls."
	callVoice       = "alexa"
	callModel       = "turbo"
	callTemperature = 0.8
	callMaxDuration = 8
)

// callPayload is the Bland.ai /v1/calls request body.
type callPayload struct {
	PhoneNumber     string  `json:"phone_number"`
	Task            string  `json:"task"`
	Voice           string  `json:"voice"`
	Model           string  `json:"model"`
	FirstSentence   string  `json:"first_sentence"`
	WaitForGreeting bool    `json:"wait_for_greeting"`
	AfterGreeting   string  `json:"after_greeting"`
	Temperature     float64 `json:"temperature"`
	MaxDuration     int     `json:"max_duration"`
}

// CallClient submits call-placement requests to Bland.ai.
//
// Each request is attempted exactly once: the dialogue flow treats a failed
// placement as a terminal outcome for that turn, so there is no retry here.
type CallClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewCallClient creates a Bland.ai client. The API key is required.
func NewCallClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) (*CallClient, error) {
	if apiKey == "" {
		return nil, &domain.ErrMissingConfig{Field: "BLAND_API_KEY"}
	}
	return &CallClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// PlaceCall asks Bland.ai to dial the customer. A 200 response means the call
// was accepted for dialing; the call's eventual outcome is not observed.
func (c *CallClient) PlaceCall(ctx context.Context, req *domain.CallRequest) error {
	ctx, span := tracer.Start(ctx, "CallClient.PlaceCall")
	defer span.End()

	payload := callPayload{
		PhoneNumber:     req.PhoneNumber,
		Task:            callTask,
		Voice:           callVoice,
		Model:           callModel,
		FirstSentence:   fmt.Sprintf("Hello, is this %s?", req.FirstName),
		WaitForGreeting: true,
		AfterGreeting: fmt.Sprintf("Hey %s, this is Sara from the Rivertown Ball Company. "+
			"You were just online chatting and requested a quick call. How can I help you today?", req.FirstName),
		Temperature: callTemperature,
		MaxDuration: callMaxDuration,
	}

	_, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/calls", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("bland API returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		c.metrics.IncrExternalError("bland")
		c.metrics.IncrCallPlaced("failed")
		c.logger.Error("call placement failed",
			zap.String("first_name", req.FirstName),
			zap.Error(err))
		return &domain.ErrExternalService{Service: "bland", Err: err}
	}

	c.metrics.IncrCallPlaced("accepted")
	c.logger.Info("call placement accepted", zap.String("first_name", req.FirstName))
	return nil
}
