// Package bedrock holds the Amazon Bedrock clients: the Claude model
// client (InvokeModel) and the knowledge-base client (RetrieveAndGenerate).
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/infra/observability"
)

var tracer = otel.Tracer("infra/bedrock")

const anthropicVersion = "bedrock-2023-05-31"

// systemPrompt is the fixed persona for the Rivertown storefront assistant.
// The phone-request JSON convention is how the model signals that the user
// asked for a callback; the dialogue router scans replies for it.
const systemPrompt = `You are assisting customers at Rivertown Ball Company, specializing in high-end wooden craft balls.

Keep responses natural, concise, and friendly. Avoid formal phrases like "Thank you for your inquiry" or "As a knowledgeable assistant." Instead, respond as a helpful person would in a natural conversation.

If a customer asks to speak with someone, wants to make a phone call, or requests a call back, respond with a special JSON format:
{
    "type": "phone_request",
    "message": "I'll help connect you with our team! First, could you tell me your first name?",
    "stage": "name"
}

For all other responses, be direct and friendly while sharing information about our premium wooden craft balls.`

// modelRequest is the Anthropic messages body for Claude on Bedrock.
type modelRequest struct {
	AnthropicVersion string         `json:"anthropic_version"`
	System           string         `json:"system,omitempty"`
	Messages         []modelMessage `json:"messages"`
	MaxTokens        int            `json:"max_tokens"`
	Temperature      float64        `json:"temperature"`
}

type modelMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// modelResponse mirrors the Claude response envelope.
type modelResponse struct {
	Content []contentItem `json:"content"`
	Usage   *usage        `json:"usage,omitempty"`
}

type contentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ModelClient invokes the Claude model on Bedrock. One attempt per call;
// the circuit breaker fails fast when the provider is repeatedly down.
type ModelClient struct {
	runtime     *bedrockruntime.Client
	modelID     string
	maxTokens   int
	temperature float64
	cb          *gobreaker.CircuitBreaker
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewModelClient creates the model client for the given model id.
func NewModelClient(awsCfg aws.Config, modelID string, cb *gobreaker.CircuitBreaker, metrics *observability.Metrics, logger *zap.Logger) (*ModelClient, error) {
	if modelID == "" {
		return nil, &domain.ErrMissingConfig{Field: "BEDROCK_MODEL_ID"}
	}
	return &ModelClient{
		runtime:     bedrockruntime.NewFromConfig(awsCfg),
		modelID:     modelID,
		maxTokens:   2048,
		temperature: 0.7,
		cb:          cb,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// Generate sends the combined prompt (retrieved context + customer query)
// to Claude and returns the first content segment's text.
func (c *ModelClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "ModelClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("bedrock.model_id", c.modelID))

	result, err := c.cb.Execute(func() (any, error) {
		body, err := json.Marshal(modelRequest{
			AnthropicVersion: anthropicVersion,
			System:           systemPrompt,
			Messages: []modelMessage{
				{
					Role:    "user",
					Content: []contentBlock{{Type: "text", Text: prompt}},
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal model request: %w", err)
		}

		out, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(c.modelID),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        body,
		})
		if err != nil {
			return nil, fmt.Errorf("invoke model: %w", err)
		}

		var resp modelResponse
		if err := json.Unmarshal(out.Body, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal model response: %w", err)
		}
		if len(resp.Content) == 0 {
			return nil, fmt.Errorf("model response has no content segments")
		}

		if resp.Usage != nil {
			c.metrics.RecordTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
		return resp.Content[0].Text, nil
	})

	if err != nil {
		c.metrics.IncrExternalError("bedrock")
		c.logger.Error("model invocation failed",
			zap.String("model_id", c.modelID),
			zap.Error(err),
		)
		return "", &domain.ErrExternalService{Service: "bedrock", Err: err}
	}

	return result.(string), nil
}
