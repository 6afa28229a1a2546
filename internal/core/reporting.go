package core

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ReportItem is one row of the inventory valuation breakdown.
type ReportItem struct {
	ItemName  string          `json:"item_name"`
	Stock     int64           `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Value     decimal.Decimal `json:"value"`
}

// FinancialReport is a read-only snapshot of the company's position as of a
// date. Rebuilding it for the same date with no intervening writes yields an
// identical report.
type FinancialReport struct {
	AsOf           time.Time       `json:"as_of"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	InventoryValue decimal.Decimal `json:"inventory_value"`
	TotalAssets    decimal.Decimal `json:"total_assets"`
	Inventory      []ReportItem    `json:"inventory_summary"`
	TopSellers     []Seller        `json:"top_sellers"`
}

// Reporter aggregates the ledger into financial snapshots. It only reads.
type Reporter struct {
	store   LedgerStore
	catalog *Catalog
}

func NewReporter(store LedgerStore, catalog *Catalog) *Reporter {
	return &Reporter{store: store, catalog: catalog}
}

// topSellerLimit matches the report contract: at most five rows.
const topSellerLimit = 5

// Report builds the financial snapshot as of the given date. Inventory is
// valued per managed item at its policy reference price; managed items that
// are out of stock still appear in the breakdown with zero value.
func (r *Reporter) Report(ctx context.Context, asOf time.Time) (*FinancialReport, error) {
	asOf = DateOnly(asOf)

	cash, err := r.store.CashAsOf(ctx, asOf)
	if err != nil {
		return nil, err
	}

	policies, err := r.store.Policies(ctx)
	if err != nil {
		return nil, err
	}

	report := &FinancialReport{
		AsOf:           asOf,
		CashBalance:    cash,
		InventoryValue: decimal.Zero,
	}
	for _, p := range policies {
		stock, err := r.store.StockAsOf(ctx, p.ItemName, asOf)
		if err != nil {
			return nil, err
		}
		value := p.ReferenceUnitPrice.Mul(decimal.NewFromInt(stock))
		report.InventoryValue = report.InventoryValue.Add(value)
		report.Inventory = append(report.Inventory, ReportItem{
			ItemName:  p.ItemName,
			Stock:     stock,
			UnitPrice: p.ReferenceUnitPrice,
			Value:     value,
		})
	}
	sort.Slice(report.Inventory, func(i, j int) bool {
		return report.Inventory[i].ItemName < report.Inventory[j].ItemName
	})
	report.TotalAssets = report.CashBalance.Add(report.InventoryValue)

	report.TopSellers, err = r.store.TopSellersAsOf(ctx, asOf, topSellerLimit)
	if err != nil {
		return nil, err
	}
	return report, nil
}
