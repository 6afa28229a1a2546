package core

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerStore is the append-only event log plus its point-in-time query
// engine. Every derived quantity (stock, cash, top sellers) is a fold over
// events with occurred_on <= cutoff; insertion order never matters.
//
// Implementations must make AppendSaleCapped linearizable per item: two
// concurrent commits against the same item observe each other so neither
// oversells. Cross-item commits need no mutual ordering.
//
// There is deliberately no update or delete operation. Corrections are new
// compensating events.
type LedgerStore interface {
	// Append validates the event kind, assigns an identifier and persists the
	// event. Returns ErrInvalidEventKind for an unknown kind.
	Append(ctx context.Context, ev LedgerEvent) (int64, error)

	// StockAsOf returns net stock for one item: stock_order units minus sale
	// units, occurred_on <= cutoff. Zero (not an error) when the item has no
	// events. The result may be negative; only commits guard against that.
	StockAsOf(ctx context.Context, itemName string, cutoff time.Time) (int64, error)

	// CashAsOf returns sale amounts minus stock_order amounts up to cutoff.
	// Zero when no events exist. May legitimately be negative.
	CashAsOf(ctx context.Context, cutoff time.Time) (decimal.Decimal, error)

	// AllPositiveStockAsOf returns only items whose aggregate is strictly
	// positive. A sold-out item is omitted here — that is different from an
	// item that was never stocked.
	AllPositiveStockAsOf(ctx context.Context, cutoff time.Time) (map[string]int64, error)

	// TopSellersAsOf aggregates sales only, ordered by revenue descending,
	// ties by item name ascending.
	TopSellersAsOf(ctx context.Context, cutoff time.Time, limit int) ([]Seller, error)

	// SearchQuoteHistory matches each term case-insensitively against the
	// original request text OR the quote explanation; every term must match
	// (AND across terms, OR across the two fields). Ordered by order date
	// descending, then request id ascending.
	SearchQuoteHistory(ctx context.Context, terms []string, limit int) ([]QuoteRecord, error)

	// AppendSaleCapped is the guarded commit path used by the fulfillment
	// pipeline. Inside one per-item critical section it re-reads net stock as
	// of saleDate, caps units to what is actually on hand, and appends a sale
	// event priced at committed units x unitAmount. A line whose stock
	// dropped to zero commits nothing and returns CommittedUnits == 0 — never
	// an error. A commit never drives stock negative.
	AppendSaleCapped(ctx context.Context, itemName string, units int64, unitAmount decimal.Decimal, saleDate time.Time) (SaleCommit, error)

	// Policy returns the inventory policy row for an item, or ok=false when
	// the item is not under active management.
	Policy(ctx context.Context, itemName string) (InventoryPolicy, bool, error)

	// Policies returns all policy rows.
	Policies(ctx context.Context) ([]InventoryPolicy, error)

	// ReplacePolicies performs an administrative re-seed of the policy table.
	// It is a full replace, never a merge.
	ReplacePolicies(ctx context.Context, rows []InventoryPolicy) error

	// RecordQuoteHistory stores a request/quote pair for later search. This is
	// a seeding/administrative path; the pipeline itself persists nothing but
	// ledger events.
	RecordQuoteHistory(ctx context.Context, rec QuoteRecord) (int64, error)
}
