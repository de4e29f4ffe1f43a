// Package dynamo provides the DynamoDB-backed customer order store.
package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

var tracer = otel.Tracer("infra/dynamo")

// rawOrder mirrors one entry of a customer's "orders" list attribute.
type rawOrder struct {
	OrderID    string  `dynamodbav:"order_id"`
	Product    string  `dynamodbav:"product"`
	Quantity   int     `dynamodbav:"quantity"`
	OrderDate  string  `dynamodbav:"order_date"`
	TotalPrice float64 `dynamodbav:"total_price"`
}

// OrderStore looks up customer order history in DynamoDB.
//
// The table is small (a retail demo dataset), so lookups use a Scan with an
// equality filter on the name attributes rather than a GSI.
type OrderStore struct {
	client *dynamodb.Client
	table  string
	logger *zap.Logger
}

// NewOrderStore creates an order store for the given table.
func NewOrderStore(awsCfg aws.Config, table string, logger *zap.Logger) (*OrderStore, error) {
	if table == "" {
		return nil, &domain.ErrMissingConfig{Field: "CUSTOMERS_TABLE"}
	}
	return &OrderStore{
		client: dynamodb.NewFromConfig(awsCfg),
		table:  table,
		logger: logger,
	}, nil
}

// GetCustomerOrders returns the normalized order list for the named customer.
//
// Names are title-cased before matching, so "jane"/"DOE" find "Jane Doe".
// The boolean reports whether the customer record exists at all: (nil, false,
// nil) means no such customer, while (empty, true, nil) means a known customer
// with zero orders. Malformed individual order entries are skipped with a
// warning rather than failing the whole lookup.
func (s *OrderStore) GetCustomerOrders(ctx context.Context, firstName, lastName string) ([]domain.Order, bool, error) {
	ctx, span := tracer.Start(ctx, "OrderStore.GetCustomerOrders")
	defer span.End()

	first := domain.TitleCase(firstName)
	last := domain.TitleCase(lastName)
	span.SetAttributes(attribute.String("customer.name", first+" "+last))

	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.table),
		FilterExpression: aws.String("#fn = :fn AND #ln = :ln"),
		ExpressionAttributeNames: map[string]string{
			"#fn": "first_name",
			"#ln": "last_name",
		},
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":fn": &ddbtypes.AttributeValueMemberS{Value: first},
			":ln": &ddbtypes.AttributeValueMemberS{Value: last},
		},
	})
	if err != nil {
		s.logger.Error("dynamodb scan failed",
			zap.String("table", s.table),
			zap.Error(err))
		return nil, false, &domain.ErrExternalService{Service: "dynamodb", Err: err}
	}
	if len(out.Items) == 0 {
		return nil, false, nil
	}

	// First matching customer record wins.
	item := out.Items[0]
	list, ok := item["orders"].(*ddbtypes.AttributeValueMemberL)
	if !ok {
		return []domain.Order{}, true, nil
	}

	orders := make([]domain.Order, 0, len(list.Value))
	for i, entry := range list.Value {
		m, ok := entry.(*ddbtypes.AttributeValueMemberM)
		if !ok {
			s.logger.Warn("skipping non-map order entry",
				zap.Int("index", i),
				zap.String("customer", first+" "+last))
			continue
		}
		var raw rawOrder
		if err := attributevalue.UnmarshalMap(m.Value, &raw); err != nil {
			s.logger.Warn("skipping malformed order entry",
				zap.Int("index", i),
				zap.String("customer", first+" "+last),
				zap.Error(err))
			continue
		}
		orders = append(orders, normalizeOrder(raw))
	}
	return orders, true, nil
}

// normalizeOrder converts a stored entry into the presentation shape, turning
// ISO dates into "January 2, 2006". Unparseable dates are kept as stored.
func normalizeOrder(raw rawOrder) domain.Order {
	date := raw.OrderDate
	if t, err := time.Parse("2006-01-02", raw.OrderDate); err == nil {
		date = t.Format("January 2, 2006")
	}
	return domain.Order{
		ID:         raw.OrderID,
		Product:    raw.Product,
		Quantity:   raw.Quantity,
		Date:       date,
		TotalPrice: raw.TotalPrice,
	}
}

// String identifies the store in health reporting.
func (s *OrderStore) String() string {
	return fmt.Sprintf("dynamodb(%s)", s.table)
}
