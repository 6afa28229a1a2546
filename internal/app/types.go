package app

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordEventRequest is the input for the direct ledger-append entry points.
// TotalAmount is the full transaction amount, not a unit price.
type RecordEventRequest struct {
	ItemName    string
	Units       int64
	TotalAmount decimal.Decimal
	Date        time.Time
}

// StockItem is one row of a stock listing.
type StockItem struct {
	ItemName string `json:"item_name"`
	Units    int64  `json:"units"`
}

// StockResult is returned by GetStock, sorted by item name.
type StockResult struct {
	AsOf  time.Time   `json:"as_of"`
	Items []StockItem `json:"items"`
}
