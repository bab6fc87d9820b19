package agent

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	custom_errors "repo-intel/internal/errors"
)

// PaymentHeader carries the payment proof a client attaches to a priced call.
const PaymentHeader = "X-Payment"

// Currency names the unit prices are quoted in.
const Currency = "USDC"

// Paywall decides whether a request may run a priced operation.
// Settlement and proof verification belong to the payment facilitator.
type Paywall interface {
	Authorize(r *http.Request, op Operation) error
}

// Challenge is returned with 402 responses so the client knows what to pay.
type Challenge struct {
	ChallengeID string `json:"challengeId"`
	Operation   string `json:"operation"`
	Price       int64  `json:"price"`
	Currency    string `json:"currency"`
	Header      string `json:"header"`
}

// NewChallenge describes the payment owed for op.
func NewChallenge(op Operation) Challenge {
	return Challenge{
		ChallengeID: uuid.NewString(),
		Operation:   op.Key,
		Price:       op.Price,
		Currency:    Currency,
		Header:      PaymentHeader,
	}
}

// HeaderPaywall admits priced calls that present a payment proof header.
type HeaderPaywall struct{}

func (HeaderPaywall) Authorize(r *http.Request, op Operation) error {
	if op.Free() {
		return nil
	}
	if strings.TrimSpace(r.Header.Get(PaymentHeader)) == "" {
		return &custom_errors.ErrPaymentRequired{Operation: op.Key, Price: op.Price}
	}
	return nil
}

// OpenPaywall admits every call. Used when payments are disabled.
type OpenPaywall struct{}

func (OpenPaywall) Authorize(*http.Request, Operation) error { return nil }
