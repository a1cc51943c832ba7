package broker

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

// SubmitRequest is one order submission. IdempotencyRef is the engine's
// idempotency key; the broker must treat it as the client order reference
// so reconciliation can find the order after an ambiguous failure.
type SubmitRequest struct {
	IdempotencyRef string
	Symbol         string
	Side           model.Side
	Quantity       decimal.Decimal
}

// OrderState is the broker's view of one order. Monetary values cross this
// boundary as exact decimals.
type OrderState struct {
	OrderID        string
	Status         model.OrderStatus
	FilledQuantity decimal.Decimal
	FilledAvgPrice decimal.Decimal
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}

// Broker is the external execution venue. SubmitOrder failures before
// submission wrap ErrBrokerUnavailable and are safe to retry with the same
// reference; any other transport failure is ambiguous and must be resolved
// through LookupByReference before retrying.
type Broker interface {
	// SubmitOrder submits one order under the given idempotency reference.
	SubmitOrder(ctx context.Context, req SubmitRequest) (*OrderState, error)

	// LookupByReference fetches the order previously submitted under the
	// reference, or (nil, nil) when the broker has no such order.
	LookupByReference(ctx context.Context, idempotencyRef string) (*OrderState, error)
}
