package bedrock

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	batypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// kbResultCount caps how many passages ground each generated answer.
const kbResultCount = 3

// KnowledgeBaseClient queries the Bedrock knowledge base and returns text
// grounded in retrieved passages. When the generation step yields nothing
// but passages were retrieved, the passages themselves are returned.
type KnowledgeBaseClient struct {
	agent    *bedrockagentruntime.Client
	kbID     string
	modelARN string
	logger   *zap.Logger
}

// NewKnowledgeBaseClient creates the knowledge-base client.
// A missing knowledge-base id is fatal for this client.
func NewKnowledgeBaseClient(awsCfg aws.Config, kbID, modelARN string, logger *zap.Logger) (*KnowledgeBaseClient, error) {
	if kbID == "" {
		return nil, &domain.ErrMissingConfig{Field: "BEDROCK_KB_ID"}
	}
	if modelARN == "" {
		return nil, &domain.ErrMissingConfig{Field: "BEDROCK_MODEL_ARN"}
	}
	return &KnowledgeBaseClient{
		agent:    bedrockagentruntime.NewFromConfig(awsCfg),
		kbID:     kbID,
		modelARN: modelARN,
		logger:   logger,
	}, nil
}

// Query runs retrieve-and-generate for the customer query.
// Callers treat an empty string as "no context", never as an error.
func (c *KnowledgeBaseClient) Query(ctx context.Context, query string) (string, error) {
	ctx, span := tracer.Start(ctx, "KnowledgeBaseClient.Query")
	defer span.End()
	span.SetAttributes(attribute.String("bedrock.kb_id", c.kbID))

	out, err := c.agent.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &batypes.RetrieveAndGenerateInput{
			Text: aws.String(query),
		},
		RetrieveAndGenerateConfiguration: &batypes.RetrieveAndGenerateConfiguration{
			Type: batypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &batypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId: aws.String(c.kbID),
				ModelArn:        aws.String(c.modelARN),
				RetrievalConfiguration: &batypes.KnowledgeBaseRetrievalConfiguration{
					VectorSearchConfiguration: &batypes.KnowledgeBaseVectorSearchConfiguration{
						NumberOfResults: aws.Int32(kbResultCount),
					},
				},
			},
		},
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "knowledge-base", Err: err}
	}

	if out.Output != nil && out.Output.Text != nil && *out.Output.Text != "" {
		return *out.Output.Text, nil
	}

	// Fallback: concatenate the retrieved passages when generation
	// produced no text.
	var passages []string
	for _, citation := range out.Citations {
		for _, ref := range citation.RetrievedReferences {
			if ref.Content != nil && ref.Content.Text != nil {
				passages = append(passages, *ref.Content.Text)
			}
		}
	}
	if len(passages) > 0 {
		c.logger.Debug("knowledge base returned passages without generated text",
			zap.Int("passages", len(passages)),
		)
		return strings.Join(passages, "\n\n"), nil
	}

	return "", nil
}
