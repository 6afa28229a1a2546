package app

import (
	"context"
	"time"

	"paper-trader/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, REPL, Web)
// call. It decouples presentation from business logic. Implementations must
// contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// ProcessRequest runs a free-text customer request through the parser
	// collaborator and the fulfillment pipeline.
	ProcessRequest(ctx context.Context, text string, requestDate time.Time) (*core.Result, error)

	// ProcessOrder runs pre-parsed line items through the fulfillment
	// pipeline, bypassing the parser.
	ProcessOrder(ctx context.Context, text string, lines []core.RequestLine, requestDate time.Time) (*core.Result, error)

	// GetFinancialReport builds the financial snapshot as of the given date.
	GetFinancialReport(ctx context.Context, asOf time.Time) (*core.FinancialReport, error)

	// RecordSale appends a sale event directly (administrative path).
	// Returns the new event id.
	RecordSale(ctx context.Context, req RecordEventRequest) (int64, error)

	// RecordStockOrder appends a stock_order event directly. Returns the new
	// event id.
	RecordStockOrder(ctx context.Context, req RecordEventRequest) (int64, error)

	// SearchQuoteHistory returns historical quotes matching every term in
	// either the request text or the quote explanation.
	SearchQuoteHistory(ctx context.Context, terms []string, limit int) ([]core.QuoteRecord, error)

	// GetStock returns all items with positive stock as of the date.
	GetStock(ctx context.Context, asOf time.Time) (*StockResult, error)

	// GetItemStatus returns one item's stock level and reorder assessment.
	GetItemStatus(ctx context.Context, itemName string, asOf time.Time) (*core.ItemStatus, error)

	// SeedDemo re-seeds the store with the reproducible demo dataset.
	// Destructive on policies; intended for a fresh database.
	SeedDemo(ctx context.Context, startDate time.Time) error

	// Catalog exposes the immutable product catalog.
	Catalog() *core.Catalog
}
