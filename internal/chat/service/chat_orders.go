// Package service — chat_orders.go handles the order-lookup path and the
// markdown presentation of order history.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// orderBlockStyle is the inline style the frontend expects on each order
// card. Kept verbatim; the chat widget renders this markdown/HTML directly.
const orderBlockStyle = `background-color: rgba(255, 255, 255, 0.1); padding: 15px; border-radius: 10px; margin: 10px 0;`

// lookupOrdersReply resolves an order-lookup turn into a chat reply. All
// three outcomes (orders, zero orders, unknown customer) are regular replies;
// a store failure becomes the fixed apology.
func (s *ChatService) lookupOrdersReply(ctx context.Context, first, last string) *chatdomain.Reply {
	ctx, span := chatTracer.Start(ctx, "ChatService.lookupOrdersReply")
	defer span.End()
	span.SetAttributes(attribute.String("customer.name", first+" "+last))

	orders, found, err := s.orders.GetCustomerOrders(ctx, first, last)
	if err != nil {
		s.logger.Error("order lookup failed",
			zap.String("customer", first+" "+last),
			zap.Error(err))
		s.metrics.IncrRequest("error")
		return &chatdomain.Reply{Kind: "text", Content: orderLookupFailedMessage}
	}
	s.metrics.IncrRequest("success")

	if !found {
		return &chatdomain.Reply{
			Kind: "text",
			Content: fmt.Sprintf(
				"I couldn't find any orders for %s %s. Please verify the spelling or try another name.",
				first, last),
		}
	}
	return &chatdomain.Reply{Kind: "markdown", Content: FormatOrders(first, last, orders)}
}

// LookupOrders is the direct (non-conversational) lookup used by
// GET /v1/customers/orders and the health probe.
func (s *ChatService) LookupOrders(ctx context.Context, first, last string) ([]domain.Order, bool, error) {
	return s.orders.GetCustomerOrders(ctx, first, last)
}

// FormatOrders renders order history as the decorated markdown the chat
// widget displays: a header line plus one card per order. A known customer
// with no orders gets an explicit "0 orders" line instead of an empty page.
func FormatOrders(first, last string, orders []domain.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## 📦 Orders for %s %s\n\n", first, last)

	if len(orders) == 0 {
		fmt.Fprintf(&b, "Found 0 orders for %s %s.\n", first, last)
		return b.String()
	}

	for _, o := range orders {
		fmt.Fprintf(&b, "<div style=\"%s\">\n\n", orderBlockStyle)
		fmt.Fprintf(&b, "🔖 **Order ID**: `%s`\n\n", o.ID)
		fmt.Fprintf(&b, "🎁 **Product**: %s\n\n", o.Product)
		fmt.Fprintf(&b, "📊 **Quantity**: %d\n\n", o.Quantity)
		fmt.Fprintf(&b, "📅 **Date**: %s\n\n", o.Date)
		fmt.Fprintf(&b, "💰 **Total**: $%.2f\n\n", o.TotalPrice)
		b.WriteString("</div>\n\n")
	}
	return b.String()
}
