package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"SignalDesk/internal/model"
)

// SQLiteStore persists engine state to a SQLite database. Monetary fields
// are stored as exact decimal strings, never as REAL.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads (dashboards read while the engine writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_results (
			idempotency_key TEXT PRIMARY KEY,
			broker_order_id TEXT,
			symbol          TEXT NOT NULL,
			side            TEXT NOT NULL,
			fill_price      TEXT NOT NULL,
			fill_quantity   TEXT NOT NULL,
			status          TEXT NOT NULL,
			submitted_at    INTEGER NOT NULL,
			updated_at      INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS risk_state (
			id               INTEGER PRIMARY KEY CHECK (id = 1),
			version          INTEGER NOT NULL,
			halted           INTEGER NOT NULL,
			halted_reason    TEXT,
			halted_at        INTEGER,
			current_exposure TEXT NOT NULL,
			peak_equity      TEXT NOT NULL,
			max_drawdown     REAL NOT NULL,
			updated_at       INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS decisions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			signal       TEXT NOT NULL,
			score        REAL NOT NULL,
			confidence   REAL NOT NULL,
			regime       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_symbol ON decisions(symbol)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) TradeResult(idempotencyKey string) (*model.TradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradeResultLocked(idempotencyKey)
}

func (s *SQLiteStore) tradeResultLocked(key string) (*model.TradeResult, error) {
	row := s.db.QueryRow(`SELECT broker_order_id, symbol, side, fill_price, fill_quantity, status, submitted_at, updated_at
		FROM trade_results WHERE idempotency_key = ?`, key)

	var (
		res                model.TradeResult
		price, qty         string
		submitted, updated int64
	)
	res.IdempotencyKey = key
	err := row.Scan(&res.BrokerOrderID, &res.Symbol, &res.Side, &price, &qty, &res.Status, &submitted, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query trade result: %w", err)
	}

	if res.FillPrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse fill price %q: %w", price, err)
	}
	if res.FillQuantity, err = decimal.NewFromString(qty); err != nil {
		return nil, fmt.Errorf("parse fill quantity %q: %w", qty, err)
	}
	res.SubmittedAt = time.Unix(submitted, 0).UTC()
	res.UpdatedAt = time.Unix(updated, 0).UTC()
	return &res, nil
}

func (s *SQLiteStore) SaveTradeResult(res *model.TradeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.tradeResultLocked(res.IdempotencyKey)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Symbol != res.Symbol || existing.Side != res.Side {
			return fmt.Errorf("idempotency key %s already maps to %s %s: %w",
				res.IdempotencyKey, existing.Side, existing.Symbol, model.ErrInvariantViolation)
		}
		if existing.Status.Terminal() && existing.Status != res.Status {
			return fmt.Errorf("idempotency key %s is terminal (%s), refusing %s: %w",
				res.IdempotencyKey, existing.Status, res.Status, model.ErrInvariantViolation)
		}
	}

	_, err = s.db.Exec(`INSERT INTO trade_results
		(idempotency_key, broker_order_id, symbol, side, fill_price, fill_quantity, status, submitted_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(idempotency_key) DO UPDATE SET
			broker_order_id = excluded.broker_order_id,
			fill_price      = excluded.fill_price,
			fill_quantity   = excluded.fill_quantity,
			status          = excluded.status,
			updated_at      = excluded.updated_at`,
		res.IdempotencyKey, res.BrokerOrderID, res.Symbol, string(res.Side),
		res.FillPrice.String(), res.FillQuantity.String(), string(res.Status),
		res.SubmittedAt.Unix(), res.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save trade result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RiskState() (*model.RiskState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT version, halted, halted_reason, halted_at, current_exposure, peak_equity, max_drawdown, updated_at
		FROM risk_state WHERE id = 1`)

	var (
		st               model.RiskState
		halted           int
		reason           sql.NullString
		haltedAt         sql.NullInt64
		exposure, equity string
		updated          int64
	)
	err := row.Scan(&st.Version, &halted, &reason, &haltedAt, &exposure, &equity, &st.MaxDrawdownSeen, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.RiskState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query risk state: %w", err)
	}

	st.Halted = halted != 0
	st.HaltedReason = reason.String
	if haltedAt.Valid {
		st.HaltedAt = time.Unix(haltedAt.Int64, 0).UTC()
	}
	if st.CurrentExposure, err = decimal.NewFromString(exposure); err != nil {
		return nil, fmt.Errorf("parse exposure %q: %w", exposure, err)
	}
	if st.PeakEquity, err = decimal.NewFromString(equity); err != nil {
		return nil, fmt.Errorf("parse peak equity %q: %w", equity, err)
	}
	st.UpdatedAt = time.Unix(updated, 0).UTC()
	return &st, nil
}

func (s *SQLiteStore) SaveRiskState(st *model.RiskState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	halted := 0
	if st.Halted {
		halted = 1
	}
	var haltedAt interface{}
	if !st.HaltedAt.IsZero() {
		haltedAt = st.HaltedAt.Unix()
	}

	_, err := s.db.Exec(`INSERT INTO risk_state
		(id, version, halted, halted_reason, halted_at, current_exposure, peak_equity, max_drawdown, updated_at)
		VALUES (1,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			version          = excluded.version,
			halted           = excluded.halted,
			halted_reason    = excluded.halted_reason,
			halted_at        = excluded.halted_at,
			current_exposure = excluded.current_exposure,
			peak_equity      = excluded.peak_equity,
			max_drawdown     = excluded.max_drawdown,
			updated_at       = excluded.updated_at`,
		st.Version, halted, st.HaltedReason, haltedAt,
		st.CurrentExposure.String(), st.PeakEquity.String(),
		st.MaxDrawdownSeen, st.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save risk state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordDecision(sig *model.OverallSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO decisions (timestamp, symbol, signal, score, confidence, regime)
		VALUES (?,?,?,?,?,?)`,
		sig.GeneratedAt.Unix(), sig.Symbol, sig.Signal.String(),
		sig.Score, sig.Confidence, string(sig.Regime),
	)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}
