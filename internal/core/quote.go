package core

import (
	"github.com/shopspring/decimal"
)

// UnfulfillableReason classifies why a requested line cannot be quoted.
type UnfulfillableReason string

const (
	ReasonUnknownItem UnfulfillableReason = "unknown_item"
	ReasonOutOfStock  UnfulfillableReason = "out_of_stock"
)

// QuoteLine is one priced, fulfillable line of a quote. LineTotal is exact;
// rounding happens once, on the quote's grand total.
type QuoteLine struct {
	ItemName         string          `json:"item_name"`
	RequestedUnits   int64           `json:"requested_units"`
	FulfillableUnits int64           `json:"fulfillable_units"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	DiscountPercent  int64           `json:"discount_percent"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// UnfulfillableLine is a requested line the quote cannot serve, with the
// reason. These are reported, never silently dropped.
type UnfulfillableLine struct {
	ItemName       string              `json:"item_name"`
	RequestedUnits int64               `json:"requested_units"`
	Reason         UnfulfillableReason `json:"reason"`
}

// Quote is the full pricing result for a request.
type Quote struct {
	Lines         []QuoteLine         `json:"lines"`
	Unfulfillable []UnfulfillableLine `json:"unfulfillable,omitempty"`
	// GrandTotal is the sum of exact line totals rounded to the nearest
	// whole currency unit.
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// QuoteEngine prices requested line items against a stock snapshot.
// Pricing source: policy reference price for managed items, catalog price
// otherwise.
type QuoteEngine struct {
	normalizer *Normalizer
	catalog    *Catalog
}

func NewQuoteEngine(catalog *Catalog, normalizer *Normalizer) *QuoteEngine {
	return &QuoteEngine{normalizer: normalizer, catalog: catalog}
}

// discountPercent returns the bulk discount tier for the quantity the
// customer ASKED for. The tier deliberately keys on the requested quantity,
// not the capped fulfillable quantity: the discount reflects the size of the
// ask, even when we can only partially fill it.
func discountPercent(requested int64) int64 {
	switch {
	case requested >= 5000:
		return 20
	case requested >= 1000:
		return 15
	case requested >= 500:
		return 10
	case requested >= 100:
		return 5
	default:
		return 0
	}
}

// Build prices each requested line against the stock snapshot and pricing
// map, both keyed by canonical item name. Unknown items and zero-stock items
// land in Unfulfillable with their reason; partially coverable lines are
// capped. Per-line amounts stay exact; only the grand total is rounded.
func (e *QuoteEngine) Build(lines []RequestLine, stock map[string]int64, prices map[string]decimal.Decimal) Quote {
	var quote Quote
	total := decimal.Zero

	for _, line := range lines {
		canonical, ok := e.normalizer.Normalize(line.ItemName)
		if !ok {
			quote.Unfulfillable = append(quote.Unfulfillable, UnfulfillableLine{
				ItemName:       line.ItemName,
				RequestedUnits: line.Quantity,
				Reason:         ReasonUnknownItem,
			})
			continue
		}

		onHand := stock[canonical]
		if onHand <= 0 {
			quote.Unfulfillable = append(quote.Unfulfillable, UnfulfillableLine{
				ItemName:       canonical,
				RequestedUnits: line.Quantity,
				Reason:         ReasonOutOfStock,
			})
			continue
		}

		fulfillable := line.Quantity
		if onHand < fulfillable {
			fulfillable = onHand
		}

		unitPrice, ok := prices[canonical]
		if !ok {
			if it, found := e.catalog.Lookup(canonical); found {
				unitPrice = it.UnitPrice
			}
		}

		discount := discountPercent(line.Quantity)
		subtotal := unitPrice.Mul(decimal.NewFromInt(fulfillable))
		lineTotal := subtotal.Mul(decimal.NewFromInt(100 - discount)).Div(decimal.NewFromInt(100))

		quote.Lines = append(quote.Lines, QuoteLine{
			ItemName:        canonical,
			RequestedUnits:  line.Quantity,
			FulfillableUnits: fulfillable,
			UnitPrice:       unitPrice,
			DiscountPercent: discount,
			LineTotal:       lineTotal,
		})
		total = total.Add(lineTotal)
	}

	quote.GrandTotal = total.Round(0)
	return quote
}
