package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPaper       Category = "paper"
	CategoryProduct     Category = "product"
	CategoryLargeFormat Category = "large_format"
	CategorySpecialty   Category = "specialty"
)

// CatalogItem is one sellable product definition. The catalog is loaded once
// at startup and never mutated.
type CatalogItem struct {
	Name      string          `json:"name"`
	Category  Category        `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// InventoryPolicy is the per-item stocking configuration. An item without a
// policy row is still sellable (if catalogued) but not under active
// management — no reorder threshold, no reference price.
type InventoryPolicy struct {
	ItemName           string          `json:"item_name"`
	MinStockLevel      int64           `json:"min_stock_level"`
	ReferenceUnitPrice decimal.Decimal `json:"reference_unit_price"`
}

type EventKind string

const (
	EventStockOrder EventKind = "stock_order"
	EventSale       EventKind = "sale"
)

// Valid reports whether k is one of the two recognised event kinds.
func (k EventKind) Valid() bool {
	return k == EventStockOrder || k == EventSale
}

// LedgerEvent is the single source of truth: a dated, immutable record of a
// stock addition or a sale. A sale with no item name and a positive amount is
// an exogenous cash injection (the opening balance) and moves no stock.
// Events are never updated or deleted; corrections are new compensating events.
type LedgerEvent struct {
	ID         int64           `json:"id"`
	ItemName   *string         `json:"item_name,omitempty"`
	Kind       EventKind       `json:"kind"`
	Units      *int64          `json:"units,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredOn time.Time       `json:"occurred_on"`
}

// Seller is one row of a top-sellers aggregation.
type Seller struct {
	ItemName     string          `json:"item_name"`
	TotalUnits   int64           `json:"total_units"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

// QuoteRecord is a historical quote joined with the original customer request
// it answered. Request and Explanation are the two free-text fields the
// history search matches against.
type QuoteRecord struct {
	RequestID   int64           `json:"request_id"`
	Request     string          `json:"original_request"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Explanation string          `json:"quote_explanation"`
	JobType     string          `json:"job_type"`
	OrderSize   string          `json:"order_size"`
	EventType   string          `json:"event_type"`
	OrderDate   time.Time       `json:"order_date"`
}

// RequestLine is one structured line item of a customer request, after any
// natural-language interpretation but before name normalization.
type RequestLine struct {
	ItemName string `json:"item_name" jsonschema_description:"The item the customer asked for, as phrased by the customer"`
	Quantity int64  `json:"quantity" jsonschema_description:"The number of units requested (positive integer)"`
}

// SaleCommit is the outcome of one guarded sale append. CommittedUnits may be
// lower than requested (capped to freshly observed stock) or zero (the line
// was downgraded because stock ran out between stages).
type SaleCommit struct {
	EventID        int64           `json:"event_id,omitempty"`
	CommittedUnits int64           `json:"committed_units"`
	Amount         decimal.Decimal `json:"amount"`
}

// ItemStatus is the reorder assessment for a single item. Managed
// distinguishes "no policy row" from "stock below minimum"; an unmanaged item
// never signals a reorder.
type ItemStatus struct {
	ItemName     string `json:"item_name"`
	Stock        int64  `json:"stock"`
	Managed      bool   `json:"managed"`
	MinStock     int64  `json:"min_stock,omitempty"`
	NeedsReorder bool   `json:"needs_reorder"`
}

// DateOnly truncates t to a calendar date in UTC. All ledger cutoffs compare
// at day granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date. A trailing ISO time part is tolerated
// and dropped. There is no fallback to "now": callers decide what an
// unparsable date means for them.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if i := strings.IndexByte(trimmed, 'T'); i >= 0 {
		trimmed = trimmed[:i]
	}
	t, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, ErrUnparsableDate
	}
	return t, nil
}
