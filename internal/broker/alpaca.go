package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

// Alpaca adapts the Alpaca trading API to the Broker interface. The
// engine's idempotency key travels as the client order id, which Alpaca
// enforces unique per account, so reconciliation after an ambiguous
// failure is a lookup by that id.
type Alpaca struct {
	client *alpaca.Client
}

// NewAlpaca creates an adapter. Credentials and base URL come from the
// standard APCA_* environment variables when opts is empty.
func NewAlpaca(opts alpaca.ClientOpts) *Alpaca {
	return &Alpaca{client: alpaca.NewClient(opts)}
}

// Equity returns the account equity as an exact decimal, satisfying the
// pipeline's Accounts interface.
func (a *Alpaca) Equity(_ context.Context) (decimal.Decimal, error) {
	acct, err := a.client.GetAccount()
	if err != nil {
		return decimal.Zero, fmt.Errorf("alpaca account: %v: %w", err, model.ErrBrokerUnavailable)
	}
	return acct.Equity, nil
}

func (a *Alpaca) SubmitOrder(_ context.Context, req SubmitRequest) (*OrderState, error) {
	qty := req.Quantity
	order, err := a.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           &qty,
		Side:          alpaca.Side(strings.ToLower(string(req.Side))),
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.IdempotencyRef,
	})
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) {
			// The API answered: the order was rejected, not lost.
			return nil, fmt.Errorf("alpaca rejected order for %s: %w", req.Symbol, err)
		}
		// Transport-level failure: we cannot know whether the order was
		// created. Callers must reconcile before retrying.
		return nil, fmt.Errorf("alpaca submit %s: %v: %w", req.Symbol, err, model.ErrAmbiguousExecution)
	}
	return mapOrder(order), nil
}

func (a *Alpaca) LookupByReference(_ context.Context, idempotencyRef string) (*OrderState, error) {
	order, err := a.client.GetOrderByClientOrderID(idempotencyRef)
	if err != nil {
		var apiErr *alpaca.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("alpaca lookup %s: %v: %w", idempotencyRef, err, model.ErrBrokerUnavailable)
	}
	return mapOrder(order), nil
}

func mapOrder(o *alpaca.Order) *OrderState {
	state := &OrderState{
		OrderID:        o.ID,
		Status:         mapStatus(o.Status),
		FilledQuantity: o.FilledQty,
		SubmittedAt:    o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.FilledAvgPrice != nil {
		state.FilledAvgPrice = *o.FilledAvgPrice
	}
	return state
}

func mapStatus(status string) model.OrderStatus {
	switch strings.ToLower(status) {
	case "filled":
		return model.StatusFilled
	case "partially_filled":
		return model.StatusPartiallyFilled
	case "canceled", "rejected", "expired":
		return model.StatusRejected
	case "new", "accepted", "pending_new", "accepted_for_bidding":
		return model.StatusSubmitted
	default:
		return model.StatusFailed
	}
}
