package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var nameCaser = cases.Title(language.AmericanEnglish)

// Order is a single normalized order entry from a customer record.
// Dates are re-formatted for display ("January 2, 2006"); the raw store
// value is kept when it does not parse.
type Order struct {
	ID         string  `json:"order_id"`
	Product    string  `json:"product"`
	Quantity   int     `json:"quantity"`
	Date       string  `json:"order_date"`
	TotalPrice float64 `json:"total_price"`
}

// CallRequest is the ephemeral outbound call payload built once both the
// first name and phone number have been collected. Discarded after submission.
type CallRequest struct {
	PhoneNumber string
	FirstName   string
}

// AssistantMetrics is the snapshot returned by GET /v1/metrics/assistant.
type AssistantMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	EstimatedCostUsd    float64 `json:"estimated_cost_usd"`
	CallsPlaced         int64   `json:"calls_placed"`
	SessionCacheHitRate float64 `json:"session_cache_hit_rate"`
	Period              string  `json:"period"`
}

// TitleCase normalizes a name token for customer lookups and display
// ("jane" -> "Jane", "DOE" -> "Doe").
func TitleCase(s string) string {
	return nameCaser.String(strings.ToLower(strings.TrimSpace(s)))
}
