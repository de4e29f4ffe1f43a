// Package service — chat_intent.go holds the lightweight text analysis used
// by the dialogue router: order-lookup phrase matching, phone-number
// normalization, and the opportunistic scan for the model's embedded
// phone_request JSON.
package service

import (
	"encoding/json"
	"regexp"
	"strings"

	chatdomain "github.com/jakerains/Rivertown-v2-aws/internal/chat/domain"
	"github.com/jakerains/Rivertown-v2-aws/internal/domain"
)

// orderPhrases are the trigger substrings for an order lookup, longest first
// so that "show orders for" is stripped whole rather than leaving "for"
// behind as a name token.
var orderPhrases = []string{
	"show orders for",
	"show orders",
	"orders for",
	"order for",
}

// phoneRequestPattern finds a JSON object embedded anywhere in model text.
// Greedy on purpose: the widest brace span is the candidate object.
var phoneRequestPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// ExtractOrderLookup matches an order-lookup request and returns the
// title-cased first and last name. Matching is case-insensitive on the
// trigger phrase; fewer than two name tokens after stripping is a non-match,
// so the message falls through to the general path.
func ExtractOrderLookup(input string) (first, last string, ok bool) {
	lower := strings.ToLower(input)

	matched := false
	for _, phrase := range orderPhrases {
		if strings.Contains(lower, phrase) {
			matched = true
			lower = strings.ReplaceAll(lower, phrase, " ")
		}
	}
	if !matched {
		return "", "", false
	}

	tokens := strings.Fields(lower)
	if len(tokens) < 2 {
		return "", "", false
	}
	return domain.TitleCase(tokens[0]), domain.TitleCase(tokens[1]), true
}

// NormalizePhone converts free-form input to E.164 for US numbers.
// Ten digits get a +1 prefix; eleven digits already starting with the US
// country code get a bare +. Anything else is not recognized.
func NormalizePhone(input string) (string, bool) {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 10:
		return "+1" + d, true
	case len(d) == 11 && d[0] == '1':
		return "+" + d, true
	default:
		return "", false
	}
}

// ExtractPhoneRequest scans model text for an embedded phone_request object.
// Only a syntactically valid JSON object with type "phone_request" counts;
// malformed JSON or any other object is ignored and the raw text is shown.
func ExtractPhoneRequest(text string) (*chatdomain.PhoneRequest, bool) {
	candidate := phoneRequestPattern.FindString(text)
	if candidate == "" {
		return nil, false
	}

	var req chatdomain.PhoneRequest
	if err := json.Unmarshal([]byte(candidate), &req); err != nil {
		return nil, false
	}
	if req.Type != "phone_request" {
		return nil, false
	}
	return &req, true
}
