package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Ledger is the Postgres-backed LedgerStore. All aggregation happens in SQL
// so a point-in-time query is one round trip.
type Ledger struct {
	pool *pgxpool.Pool
}

var _ LedgerStore = (*Ledger)(nil)

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

func (l *Ledger) Append(ctx context.Context, ev LedgerEvent) (int64, error) {
	if !ev.Kind.Valid() {
		return 0, fmt.Errorf("append rejected: %w (got %q)", ErrInvalidEventKind, ev.Kind)
	}

	var id int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO ledger_events (item_name, kind, units, amount, occurred_on)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, ev.ItemName, string(ev.Kind), ev.Units, ev.Amount, DateOnly(ev.OccurredOn)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append ledger event: %w", err)
	}
	return id, nil
}

func (l *Ledger) StockAsOf(ctx context.Context, itemName string, cutoff time.Time) (int64, error) {
	var stock int64
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN kind = 'stock_order' THEN units
			WHEN kind = 'sale'        THEN -units
			ELSE 0
		END), 0)
		FROM ledger_events
		WHERE item_name = $1
		  AND occurred_on <= $2
	`, itemName, DateOnly(cutoff)).Scan(&stock)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate stock for %s: %w", itemName, err)
	}
	return stock, nil
}

func (l *Ledger) CashAsOf(ctx context.Context, cutoff time.Time) (decimal.Decimal, error) {
	var cash decimal.Decimal
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN kind = 'sale'        THEN amount
			WHEN kind = 'stock_order' THEN -amount
			ELSE 0
		END), 0)
		FROM ledger_events
		WHERE occurred_on <= $1
	`, DateOnly(cutoff)).Scan(&cash)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate cash balance: %w", err)
	}
	return cash, nil
}

func (l *Ledger) AllPositiveStockAsOf(ctx context.Context, cutoff time.Time) (map[string]int64, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT item_name,
		       SUM(CASE
		           WHEN kind = 'stock_order' THEN units
		           WHEN kind = 'sale'        THEN -units
		           ELSE 0
		       END) AS stock
		FROM ledger_events
		WHERE item_name IS NOT NULL
		  AND occurred_on <= $1
		GROUP BY item_name
		HAVING SUM(CASE
		           WHEN kind = 'stock_order' THEN units
		           WHEN kind = 'sale'        THEN -units
		           ELSE 0
		       END) > 0
	`, DateOnly(cutoff))
	if err != nil {
		return nil, fmt.Errorf("failed to query stock snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]int64)
	for rows.Next() {
		var name string
		var stock int64
		if err := rows.Scan(&name, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		snapshot[name] = stock
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock snapshot iteration error: %w", err)
	}
	return snapshot, nil
}

func (l *Ledger) TopSellersAsOf(ctx context.Context, cutoff time.Time, limit int) ([]Seller, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT item_name, SUM(units) AS total_units, SUM(amount) AS total_revenue
		FROM ledger_events
		WHERE kind = 'sale'
		  AND item_name IS NOT NULL
		  AND occurred_on <= $1
		GROUP BY item_name
		ORDER BY total_revenue DESC, item_name ASC
		LIMIT $2
	`, DateOnly(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top sellers: %w", err)
	}
	defer rows.Close()

	var sellers []Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ItemName, &s.TotalUnits, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan seller row: %w", err)
		}
		sellers = append(sellers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top sellers iteration error: %w", err)
	}
	return sellers, nil
}

// SearchQuoteHistory joins quotes to their originating requests and filters
// with one LIKE pair per term: a record matches when every term appears in
// the request text or the quote explanation.
func (l *Ledger) SearchQuoteHistory(ctx context.Context, terms []string, limit int) ([]QuoteRecord, error) {
	var conditions []string
	args := []any{}
	for _, term := range terms {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(term))+"%")
		p := fmt.Sprintf("$%d", len(args))
		conditions = append(conditions,
			fmt.Sprintf("(LOWER(qr.request_text) LIKE %s OR LOWER(q.quote_explanation) LIKE %s)", p, p))
	}
	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	q := fmt.Sprintf(`
		SELECT qr.id, qr.request_text, q.total_amount, q.quote_explanation,
		       q.job_type, q.order_size, q.event_type, q.order_date
		FROM quotes q
		JOIN quote_requests qr ON q.request_id = qr.id
		WHERE %s
		ORDER BY q.order_date DESC, qr.id ASC
		LIMIT $%d
	`, where, len(args))

	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search quote history: %w", err)
	}
	defer rows.Close()

	var records []QuoteRecord
	for rows.Next() {
		var r QuoteRecord
		if err := rows.Scan(&r.RequestID, &r.Request, &r.TotalAmount, &r.Explanation,
			&r.JobType, &r.OrderSize, &r.EventType, &r.OrderDate); err != nil {
			return nil, fmt.Errorf("failed to scan quote record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quote history iteration error: %w", err)
	}
	return records, nil
}

// AppendSaleCapped serialises the read-then-append per item with a
// transaction-scoped advisory lock, so two concurrent sales of the same item
// observe each other and neither oversells. Stock is re-read inside the lock;
// the snapshot the caller based its quote on may already be stale.
func (l *Ledger) AppendSaleCapped(ctx context.Context, itemName string, units int64, unitAmount decimal.Decimal, saleDate time.Time) (SaleCommit, error) {
	if units <= 0 {
		return SaleCommit{}, fmt.Errorf("sale units must be positive, got %d", units)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return SaleCommit{}, fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", itemName); err != nil {
		return SaleCommit{}, fmt.Errorf("failed to lock item %s: %w", itemName, err)
	}

	var stock int64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN kind = 'stock_order' THEN units
			WHEN kind = 'sale'        THEN -units
			ELSE 0
		END), 0)
		FROM ledger_events
		WHERE item_name = $1
		  AND occurred_on <= $2
	`, itemName, DateOnly(saleDate)).Scan(&stock)
	if err != nil {
		return SaleCommit{}, fmt.Errorf("failed to re-read stock for %s: %w", itemName, err)
	}

	committed := units
	if stock < committed {
		committed = stock
	}
	if committed <= 0 {
		// Sold out between stages: downgrade the line, commit nothing.
		return SaleCommit{CommittedUnits: 0, Amount: decimal.Zero}, nil
	}

	amount := unitAmount.Mul(decimal.NewFromInt(committed))
	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO ledger_events (item_name, kind, units, amount, occurred_on)
		VALUES ($1, 'sale', $2, $3, $4)
		RETURNING id
	`, itemName, committed, amount, DateOnly(saleDate)).Scan(&id)
	if err != nil {
		return SaleCommit{}, fmt.Errorf("failed to append sale event for %s: %w", itemName, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return SaleCommit{}, fmt.Errorf("failed to commit sale for %s: %w", itemName, err)
	}
	return SaleCommit{EventID: id, CommittedUnits: committed, Amount: amount}, nil
}

func (l *Ledger) Policy(ctx context.Context, itemName string) (InventoryPolicy, bool, error) {
	var p InventoryPolicy
	err := l.pool.QueryRow(ctx, `
		SELECT item_name, min_stock_level, reference_unit_price
		FROM inventory_policies
		WHERE item_name = $1
	`, itemName).Scan(&p.ItemName, &p.MinStockLevel, &p.ReferenceUnitPrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return InventoryPolicy{}, false, nil
		}
		return InventoryPolicy{}, false, fmt.Errorf("failed to fetch policy for %s: %w", itemName, err)
	}
	return p, true, nil
}

func (l *Ledger) Policies(ctx context.Context) ([]InventoryPolicy, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT item_name, min_stock_level, reference_unit_price
		FROM inventory_policies
		ORDER BY item_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []InventoryPolicy
	for rows.Next() {
		var p InventoryPolicy
		if err := rows.Scan(&p.ItemName, &p.MinStockLevel, &p.ReferenceUnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

// ReplacePolicies truncates and re-inserts the policy table in one
// transaction. Re-seeding is a full replace, never a merge.
func (l *Ledger) ReplacePolicies(ctx context.Context, policies []InventoryPolicy) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin policy replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE inventory_policies"); err != nil {
		return fmt.Errorf("failed to clear policies: %w", err)
	}
	for _, p := range policies {
		if _, err := tx.Exec(ctx, `
			INSERT INTO inventory_policies (item_name, min_stock_level, reference_unit_price)
			VALUES ($1, $2, $3)
		`, p.ItemName, p.MinStockLevel, p.ReferenceUnitPrice); err != nil {
			return fmt.Errorf("failed to insert policy for %s: %w", p.ItemName, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit policy replace: %w", err)
	}
	return nil
}

func (l *Ledger) RecordQuoteHistory(ctx context.Context, rec QuoteRecord) (int64, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin quote record: %w", err)
	}
	defer tx.Rollback(ctx)

	var requestID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO quote_requests (request_text)
		VALUES ($1)
		RETURNING id
	`, rec.Request).Scan(&requestID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert quote request: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO quotes (request_id, total_amount, quote_explanation, job_type, order_size, event_type, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, requestID, rec.TotalAmount, rec.Explanation, rec.JobType, rec.OrderSize, rec.EventType, DateOnly(rec.OrderDate))
	if err != nil {
		return 0, fmt.Errorf("failed to insert quote: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit quote record: %w", err)
	}
	return requestID, nil
}
