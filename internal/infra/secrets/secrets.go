// Package secrets fetches the credential bundle from AWS Secrets Manager.
// The bundle is a JSON object holding service ids and API keys
// (BEDROCK_KB_ID, BEDROCK_MODEL_ARN, BLAND_API_KEY, ...). It is read once
// at startup and overlaid onto the environment-driven config.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// Manager wraps the Secrets Manager client.
type Manager struct {
	client *secretsmanager.Client
	logger *zap.Logger
}

// NewManager creates a Manager from a resolved AWS config.
func NewManager(awsCfg aws.Config, logger *zap.Logger) *Manager {
	return &Manager{
		client: secretsmanager.NewFromConfig(awsCfg),
		logger: logger,
	}
}

// FetchBundle retrieves and decodes the named secret bundle.
func (m *Manager) FetchBundle(ctx context.Context, name string) (map[string]string, error) {
	out, err := m.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "secretsmanager", Err: err}
	}
	if out.SecretString == nil {
		return nil, &domain.ErrExternalService{
			Service: "secretsmanager",
			Err:     fmt.Errorf("secret %q has no SecretString", name),
		}
	}

	bundle := map[string]string{}
	if err := json.Unmarshal([]byte(*out.SecretString), &bundle); err != nil {
		return nil, &domain.ErrExternalService{
			Service: "secretsmanager",
			Err:     fmt.Errorf("decode secret %q: %w", name, err),
		}
	}

	m.logger.Info("secret bundle loaded",
		zap.String("secret", name),
		zap.Int("fields", len(bundle)),
	)
	return bundle, nil
}
