package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SizedOrder is the output of the position sizer. The risk manager may
// shrink Quantity/TargetNotional or veto the order entirely before it
// reaches the executor.
type SizedOrder struct {
	Symbol          string
	Side            Side
	Quantity        decimal.Decimal
	TargetNotional  decimal.Decimal
	StopLoss        decimal.Decimal
	MaxRiskFraction float64
}

// IsZero reports whether the order sizes to nothing (no trade).
func (o SizedOrder) IsZero() bool { return o.Quantity.IsZero() }

// TradeIntent binds a risk-approved order to an idempotency key. The key is
// generated exactly once per logical decision and reused across retries.
type TradeIntent struct {
	IdempotencyKey string
	Order          SizedOrder
	CreatedAt      time.Time
}

// OrderStatus is the lifecycle state of a submitted order.
type OrderStatus string

const (
	StatusSubmitted       OrderStatus = "SUBMITTED"
	StatusFilled          OrderStatus = "FILLED"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusFailed          OrderStatus = "FAILED"
)

// Terminal reports whether the status can never change again.
func (s OrderStatus) Terminal() bool { return s == StatusFilled || s == StatusRejected }

// TradeResult is the durable record of one execution, keyed by the
// idempotency key of the intent that produced it. At most one TradeResult
// ever exists per key.
type TradeResult struct {
	IdempotencyKey string
	BrokerOrderID  string
	Symbol         string
	Side           Side
	FillPrice      decimal.Decimal
	FillQuantity   decimal.Decimal
	Status         OrderStatus
	SubmittedAt    time.Time
	UpdatedAt      time.Time
}
