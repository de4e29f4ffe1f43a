package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestNormalizeOrder_FormatsDate(t *testing.T) {
	got := normalizeOrder(rawOrder{
		OrderID:    "ORD-1001",
		Product:    "Maple Croquet Ball",
		Quantity:   4,
		OrderDate:  "2024-03-07",
		TotalPrice: 59.96,
	})

	if got.Date != "March 7, 2024" {
		t.Errorf("expected formatted date, got %q", got.Date)
	}
	if got.ID != "ORD-1001" || got.Quantity != 4 || got.TotalPrice != 59.96 {
		t.Errorf("unexpected normalized order: %+v", got)
	}
}

func TestNormalizeOrder_KeepsRawDateOnParseFailure(t *testing.T) {
	got := normalizeOrder(rawOrder{OrderID: "ORD-1", OrderDate: "sometime in march"})
	if got.Date != "sometime in march" {
		t.Errorf("expected raw date preserved, got %q", got.Date)
	}
}

func TestRawOrder_DecodesFromAttributeMap(t *testing.T) {
	entry := map[string]ddbtypes.AttributeValue{
		"order_id":    &ddbtypes.AttributeValueMemberS{Value: "ORD-2002"},
		"product":     &ddbtypes.AttributeValueMemberS{Value: "Oak Juggling Set"},
		"quantity":    &ddbtypes.AttributeValueMemberN{Value: "3"},
		"order_date":  &ddbtypes.AttributeValueMemberS{Value: "2024-11-20"},
		"total_price": &ddbtypes.AttributeValueMemberN{Value: "42.50"},
	}

	var raw rawOrder
	if err := attributevalue.UnmarshalMap(entry, &raw); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if raw.OrderID != "ORD-2002" || raw.Quantity != 3 || raw.TotalPrice != 42.50 {
		t.Errorf("unexpected decoded order: %+v", raw)
	}

	got := normalizeOrder(raw)
	if got.Date != "November 20, 2024" {
		t.Errorf("expected formatted date, got %q", got.Date)
	}
}
