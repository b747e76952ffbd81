/*
Package sqlite provides a SQLite-backed implementation of the sales
storage interfaces.

PURPOSE:
  Implements sales.OrderStore, sales.AgentStore and sales.ExclusionStore
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

COMMISSION WRITE DISCIPLINE:
  ConditionalSetCommission is a single conditional UPDATE:

    UPDATE orders SET ... WHERE id = ? AND commission_rate_snapshot IS NULL

  RowsAffected == 0 means another realization won the race. SaveOrder
  likewise refuses to touch commission columns once they are set, so a
  realized order's snapshot can never be silently overwritten.

SCHEMA CHECKS:
  The store never assumes a particular migration has run. On open it
  verifies the columns the engine requires and fails fast with
  sales.ErrSchemaMismatch when one is missing.

KEY TABLES:
  agents:     The sales directory (code, tier, parent, canonical rate)
  orders:     Orders with frozen commission snapshots
  exclusions: Aggregate-view exclusion list

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/commission.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - sales/store.go: Interface definitions
  - sales/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/commission-engine/sales"
)

// Store implements the sales storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ sales.OrderStore     = (*Store)(nil)
	_ sales.AgentStore     = (*Store)(nil)
	_ sales.ExclusionStore = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Sales directory
	CREATE TABLE IF NOT EXISTS agents (
		code TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		tier TEXT NOT NULL,
		parent_code TEXT,
		commission_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_agents_parent
		ON agents(parent_code) WHERE parent_code IS NOT NULL;

	-- Orders with frozen commission snapshots
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		sales_code TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		commission_rate_snapshot TEXT,
		commission_amount TEXT,
		primary_share_amount TEXT,
		payment_time TEXT,
		effective_time TEXT,
		expiry_time TEXT,
		is_reminded INTEGER NOT NULL DEFAULT 0,
		reminded_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_sales_code
		ON orders(sales_code);
	CREATE INDEX IF NOT EXISTS idx_orders_status
		ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_effective_time
		ON orders(effective_time);

	-- Aggregate-view exclusion list
	CREATE TABLE IF NOT EXISTS exclusions (
		agent_code TEXT PRIMARY KEY,
		active INTEGER NOT NULL DEFAULT 1,
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// requiredOrderColumns are the fields the engine cannot run without.
var requiredOrderColumns = []string{
	"sales_code", "amount", "status",
	"commission_rate_snapshot", "commission_amount", "primary_share_amount",
	"payment_time", "effective_time", "expiry_time",
	"is_reminded", "reminded_at",
}

// checkSchema fails fast when a required column is absent, rather than
// guessing at migration state.
func (s *Store) checkSchema() error {
	rows, err := s.db.Query(`PRAGMA table_info(orders)`)
	if err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notnull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			return err
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var missing []string
	for _, col := range requiredOrderColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("orders table missing columns %s: %w",
			strings.Join(missing, ", "), sales.ErrSchemaMismatch)
	}
	return nil
}

// =============================================================================
// ORDER STORE (sales.OrderStore interface)
// =============================================================================

const orderColumns = `id, sales_code, amount, status,
	commission_rate_snapshot, commission_amount, primary_share_amount,
	payment_time, effective_time, expiry_time,
	is_reminded, reminded_at, created_at`

// GetOrder returns the order or sales.ErrOrderNotFound.
func (s *Store) GetOrder(ctx context.Context, id string) (*sales.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	return o, err
}

// SaveOrder inserts an order or updates its lifecycle fields. On update,
// commission columns are left untouched so a realized snapshot can never
// be overwritten; the only write path for them is ConditionalSetCommission.
func (s *Store) SaveOrder(ctx context.Context, o *sales.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, payment_time = ?, effective_time = ?, expiry_time = ?,
		    is_reminded = ?, reminded_at = ?
		WHERE id = ?`,
		o.Status,
		nullTime(o.PaymentTime),
		nullTime(o.EffectiveTime),
		nullTime(o.ExpiryTime),
		boolInt(o.IsReminded),
		nullTimePtr(o.RemindedAt),
		o.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders
		(`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID,
		o.SalesCode,
		o.Amount.String(),
		o.Status,
		nullDecimalPtr(o.CommissionRateSnapshot),
		nullDecimalPtr(o.CommissionAmount),
		nullDecimalPtr(o.PrimaryShareAmount),
		nullTime(o.PaymentTime),
		nullTime(o.EffectiveTime),
		nullTime(o.ExpiryTime),
		boolInt(o.IsReminded),
		nullTimePtr(o.RemindedAt),
		o.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", o.ID, err)
	}
	return nil
}

// ListOrders returns orders matching the filter, ordered by stat time.
func (s *Store) ListOrders(ctx context.Context, f sales.OrderFilter) ([]*sales.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	var args []any

	if f.SalesCode != "" {
		query += ` AND sales_code = ?`
		args = append(args, f.SalesCode)
	}
	if len(f.SalesCodes) > 0 {
		query += ` AND sales_code IN (?` + strings.Repeat(",?", len(f.SalesCodes)-1) + `)`
		for _, c := range f.SalesCodes {
			args = append(args, c)
		}
	}
	if len(f.Statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(f.Statuses)-1) + `)`
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.RealizedOnly {
		query += ` AND commission_rate_snapshot IS NOT NULL`
	}
	if !f.From.IsZero() {
		query += ` AND COALESCE(effective_time, payment_time) >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if !f.To.IsZero() {
		query += ` AND COALESCE(effective_time, payment_time) < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY COALESCE(effective_time, payment_time, created_at) ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*sales.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ConditionalSetCommission writes the commission fields iff they are
// currently null. The WHERE clause is the compare-and-set: zero rows
// affected means another realization got there first.
func (s *Store) ConditionalSetCommission(ctx context.Context, id string, f sales.CommissionFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET commission_rate_snapshot = ?,
		    commission_amount = ?,
		    primary_share_amount = ?,
		    effective_time = COALESCE(effective_time, ?)
		WHERE id = ? AND commission_rate_snapshot IS NULL`,
		f.RateSnapshot.String(),
		f.CommissionAmount.String(),
		nullDecimalPtr(f.PrimaryShareAmount),
		nullTime(f.EffectiveTime),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set commission for order %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	// Distinguish "lost the race" from "no such order".
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	return false, nil
}

// MarkReminded sets the reminder flag and timestamp.
func (s *Store) MarkReminded(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET is_reminded = 1, reminded_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to mark order %s reminded: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, sales.ErrOrderNotFound)
	}
	return nil
}

// =============================================================================
// AGENT STORE (sales.AgentStore interface)
// =============================================================================

// GetAgent returns the agent or sales.ErrCodeNotFound.
func (s *Store) GetAgent(ctx context.Context, code string) (*sales.SalesAgent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT code, display_name, tier, parent_code, commission_rate, created_at
		FROM agents WHERE code = ?`, code)

	a, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent %s: %w", code, sales.ErrCodeNotFound)
	}
	return a, err
}

// SaveAgent inserts or updates an agent.
func (s *Store) SaveAgent(ctx context.Context, a *sales.SalesAgent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (code, display_name, tier, parent_code, commission_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			display_name = excluded.display_name,
			tier = excluded.tier,
			parent_code = excluded.parent_code,
			commission_rate = excluded.commission_rate`,
		a.Code,
		a.DisplayName,
		a.Tier,
		nullString(a.ParentCode),
		a.CommissionRate.String(),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", a.Code, err)
	}
	return nil
}

// ListAgents returns all agents ordered by code.
func (s *Store) ListAgents(ctx context.Context) ([]*sales.SalesAgent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, display_name, tier, parent_code, commission_rate, created_at
		FROM agents ORDER BY code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	var agents []*sales.SalesAgent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// =============================================================================
// EXCLUSION STORE (sales.ExclusionStore interface)
// =============================================================================

// ListActive returns currently active exclusion entries.
func (s *Store) ListActive(ctx context.Context) ([]sales.ExclusionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_code, active, reason, created_at
		FROM exclusions WHERE active = 1 ORDER BY agent_code ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query exclusions: %w", err)
	}
	defer rows.Close()

	var entries []sales.ExclusionEntry
	for rows.Next() {
		var (
			e         sales.ExclusionEntry
			active    int
			createdAt string
		)
		if err := rows.Scan(&e.AgentCode, &active, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan exclusion: %w", err)
		}
		e.Active = active != 0
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetExclusion creates or updates an exclusion entry.
func (s *Store) SetExclusion(ctx context.Context, e sales.ExclusionEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exclusions (agent_code, active, reason, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_code) DO UPDATE SET
			active = excluded.active,
			reason = excluded.reason`,
		e.AgentCode, boolInt(e.Active), e.Reason,
		createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save exclusion for %s: %w", e.AgentCode, err)
	}
	return nil
}

// RemoveExclusion deactivates the entry for a code.
func (s *Store) RemoveExclusion(ctx context.Context, agentCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`UPDATE exclusions SET active = 0 WHERE agent_code = ?`, agentCode)
	if err != nil {
		return fmt.Errorf("failed to remove exclusion for %s: %w", agentCode, err)
	}
	return nil
}

// =============================================================================
// SCAN / VALUE HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*sales.Order, error) {
	var (
		o                          sales.Order
		amount                     string
		rateSnapshot, commission   sql.NullString
		primaryShare               sql.NullString
		paymentTime, effectiveTime sql.NullString
		expiryTime, remindedAt     sql.NullString
		isReminded                 int
		createdAt                  string
	)

	err := row.Scan(
		&o.ID, &o.SalesCode, &amount, &o.Status,
		&rateSnapshot, &commission, &primaryShare,
		&paymentTime, &effectiveTime, &expiryTime,
		&isReminded, &remindedAt, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	o.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("order %s: bad amount %q: %w", o.ID, amount, err)
	}
	o.CommissionRateSnapshot = parseDecimalPtr(rateSnapshot)
	o.CommissionAmount = parseDecimalPtr(commission)
	o.PrimaryShareAmount = parseDecimalPtr(primaryShare)
	o.PaymentTime = parseTime(paymentTime)
	o.EffectiveTime = parseTime(effectiveTime)
	o.ExpiryTime = parseTime(expiryTime)
	o.IsReminded = isReminded != 0
	if t := parseTime(remindedAt); !t.IsZero() {
		o.RemindedAt = &t
	}
	o.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &o, nil
}

func scanAgent(row rowScanner) (*sales.SalesAgent, error) {
	var (
		a          sales.SalesAgent
		parentCode sql.NullString
		rate       string
		createdAt  string
	)

	err := row.Scan(&a.Code, &a.DisplayName, &a.Tier, &parentCode, &rate, &createdAt)
	if err != nil {
		return nil, err
	}

	a.ParentCode = parentCode.String
	a.CommissionRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("agent %s: bad rate %q: %w", a.Code, rate, err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &a, nil
}

func parseDecimalPtr(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339Nano, ns.String)
	return t
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return nullTime(*t)
}

func nullDecimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
