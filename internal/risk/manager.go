package risk

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

// Limits is the risk policy enforced on every sized order.
type Limits struct {
	MaxDrawdown          float64         // halt when equity drawdown exceeds this
	MaxSymbolFraction    float64         // per-symbol exposure cap, fraction of equity
	MaxAggregateFraction float64         // total exposure cap, fraction of equity
	LotSize              decimal.Decimal // granularity used when shrinking quantity
}

// DefaultLimits returns the default risk policy.
func DefaultLimits() Limits {
	return Limits{
		MaxDrawdown:          0.20,
		MaxSymbolFraction:    0.15,
		MaxAggregateFraction: 0.50,
		LotSize:              decimal.NewFromInt(1),
	}
}

// Manager owns the process-wide RiskState under a single-writer discipline:
// every mutation happens under its mutex and is persisted before the call
// returns, so a restart resumes from the last recorded state. Once Halted,
// only an explicit Reset reopens trading; no retry path clears it.
type Manager struct {
	mu     sync.Mutex
	state  *model.RiskState
	store  store.Store
	limits Limits
}

// NewManager loads the persisted risk state. A previously recorded halt
// survives the restart.
func NewManager(st store.Store, limits Limits) (*Manager, error) {
	state, err := st.RiskState()
	if err != nil {
		return nil, fmt.Errorf("load risk state: %w", err)
	}
	if state.Halted {
		log.Printf("[WARN] risk manager starting HALTED: %s (since %s)",
			state.HaltedReason, state.HaltedAt.Format(time.RFC3339))
	}
	return &Manager{state: state, store: st, limits: limits}, nil
}

// State returns a consistent snapshot of the current risk state.
func (m *Manager) State() model.RiskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Halted reports whether the circuit breaker is open.
func (m *Manager) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Halted
}

// Halt opens the circuit breaker. Used for administrative halts and by the
// manager itself on limit breaches.
func (m *Manager) Halt(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.haltLocked(reason)
}

func (m *Manager) haltLocked(reason string) error {
	if m.state.Halted {
		return nil
	}
	m.state.Halted = true
	m.state.HaltedReason = reason
	m.state.HaltedAt = time.Now().UTC()
	log.Printf("[ERROR] trading HALTED: %s", reason)
	return m.saveLocked()
}

// Reset clears a halt. This is the only path from Halted back to Active and
// is never called automatically.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Halted {
		return nil
	}
	log.Printf("[INFO] risk halt cleared by administrative reset (was: %s)", m.state.HaltedReason)
	m.state.Halted = false
	m.state.HaltedReason = ""
	m.state.HaltedAt = time.Time{}
	return m.saveLocked()
}

// ObserveEquity records an equity mark, tracks the peak, and halts when the
// drawdown from peak exceeds the configured limit.
func (m *Manager) ObserveEquity(equity decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if equity.GreaterThan(m.state.PeakEquity) {
		m.state.PeakEquity = equity
	}
	if m.state.PeakEquity.Sign() > 0 {
		dd := m.state.PeakEquity.Sub(equity).Div(m.state.PeakEquity).InexactFloat64()
		if dd > m.state.MaxDrawdownSeen {
			m.state.MaxDrawdownSeen = dd
		}
		if dd > m.limits.MaxDrawdown && !m.state.Halted {
			return m.haltLocked(fmt.Sprintf("drawdown %.1f%% exceeds limit %.1f%%",
				dd*100, m.limits.MaxDrawdown*100))
		}
	}
	return m.saveLocked()
}

// NoteStopBreach halts trading when a single position's loss has exceeded
// its stop.
func (m *Manager) NoteStopBreach(symbol string, loss decimal.Decimal) error {
	return m.Halt(fmt.Sprintf("position %s loss %s exceeded its stop", symbol, loss.String()))
}

// AddExposure records notional added by a fill.
func (m *Manager) AddExposure(notional decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CurrentExposure = m.state.CurrentExposure.Add(notional)
	return m.saveLocked()
}

// ReleaseExposure records notional removed by a close. Exposure never goes
// negative.
func (m *Manager) ReleaseExposure(notional decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.CurrentExposure = m.state.CurrentExposure.Sub(notional)
	if m.state.CurrentExposure.Sign() < 0 {
		m.state.CurrentExposure = decimal.Zero
	}
	return m.saveLocked()
}

// Approve validates a sized order against the risk state. While halted,
// every order is vetoed with ErrTradingHalted. While active, the order may
// be shrunk to respect the per-symbol and aggregate exposure caps; an order
// with no remaining headroom shrinks to zero quantity (no trade).
func (m *Manager) Approve(order model.SizedOrder, equity, symbolExposure decimal.Decimal) (model.SizedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Halted {
		return model.SizedOrder{}, model.WrapStage("risk",
			fmt.Errorf("%s since %s (%s): %w", order.Symbol,
				m.state.HaltedAt.Format(time.RFC3339), m.state.HaltedReason, model.ErrTradingHalted))
	}
	if order.IsZero() {
		return order, nil
	}

	symbolCap := equity.Mul(decimal.NewFromFloat(m.limits.MaxSymbolFraction)).Sub(symbolExposure)
	aggregateCap := equity.Mul(decimal.NewFromFloat(m.limits.MaxAggregateFraction)).Sub(m.state.CurrentExposure)

	allowed := order.TargetNotional
	if symbolCap.LessThan(allowed) {
		allowed = symbolCap
	}
	if aggregateCap.LessThan(allowed) {
		allowed = aggregateCap
	}
	if allowed.Sign() <= 0 {
		log.Printf("[WARN] risk: no exposure headroom for %s, order shrunk to zero", order.Symbol)
		return model.SizedOrder{Symbol: order.Symbol, Side: order.Side}, nil
	}
	if allowed.GreaterThanOrEqual(order.TargetNotional) {
		return order, nil
	}

	// Shrink proportionally, keeping lot granularity.
	price := order.TargetNotional.Div(order.Quantity)
	lot := m.limits.LotSize
	if lot.Sign() <= 0 {
		lot = decimal.NewFromInt(1)
	}
	quantity := allowed.Div(price).Div(lot).Floor().Mul(lot)
	if quantity.Sign() <= 0 {
		return model.SizedOrder{Symbol: order.Symbol, Side: order.Side}, nil
	}

	shrunk := order
	shrunk.Quantity = quantity
	shrunk.TargetNotional = quantity.Mul(price)
	log.Printf("[INFO] risk: shrunk %s order from %s to %s notional",
		order.Symbol, order.TargetNotional.String(), shrunk.TargetNotional.String())
	return shrunk, nil
}

// ApproveClose authorizes an exposure-reducing order. Close-only actions
// are the one administrative path allowed while halted.
func (m *Manager) ApproveClose(order model.SizedOrder) (model.SizedOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Halted {
		log.Printf("[INFO] risk: close-only order for %s approved under halt", order.Symbol)
	}
	return order, nil
}

func (m *Manager) saveLocked() error {
	m.state.Version++
	m.state.UpdatedAt = time.Now().UTC()
	if err := m.store.SaveRiskState(m.state); err != nil {
		return fmt.Errorf("persist risk state: %w", err)
	}
	return nil
}
