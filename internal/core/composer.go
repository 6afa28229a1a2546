package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TemplateComposer is the deterministic ResponseComposer: a plain-text reply
// built from the stage outputs, with no model in the loop. It is the default
// for batch runs and tests; the AI-backed composer is a drop-in replacement.
type TemplateComposer struct{}

var _ ResponseComposer = TemplateComposer{}

// Compose renders the fulfilled/unfulfilled breakdown and the delivery
// estimate. Internal pricing inputs (reference prices, stage names) never
// appear in the reply.
func (TemplateComposer) Compose(_ context.Context, in ComposeInput) (string, error) {
	var b strings.Builder
	b.WriteString("Thank you for your request.\n")

	fulfilled := false
	for _, s := range in.Sales {
		if s.CommittedUnits > 0 {
			fulfilled = true
			break
		}
	}

	if fulfilled {
		b.WriteString("\nWe are pleased to confirm the following order:\n")
		for _, s := range in.Sales {
			if s.CommittedUnits == 0 {
				continue
			}
			line := findQuoteLine(in.Quote, s.ItemName)
			fmt.Fprintf(&b, "  - %s: %d units", s.ItemName, s.CommittedUnits)
			if line != nil && line.DiscountPercent > 0 {
				fmt.Fprintf(&b, " (%d%% bulk discount applied)", line.DiscountPercent)
			}
			fmt.Fprintf(&b, " — $%s\n", s.Amount.StringFixed(2))
			if s.CommittedUnits < s.RequestedUnits {
				fmt.Fprintf(&b, "    Note: only %d of the %d units requested were available.\n",
					s.CommittedUnits, s.RequestedUnits)
			}
		}
		total := totalCharged(in.Sales)
		fmt.Fprintf(&b, "\nTotal charged: $%s\n", total.Round(0).StringFixed(0))
		fmt.Fprintf(&b, "Estimated delivery: %s\n", in.DeliveryEstimate.Format("2006-01-02"))
	}

	if len(in.Quote.Unfulfillable) > 0 {
		b.WriteString("\nUnfortunately we could not fulfill the following:\n")
		for _, u := range in.Quote.Unfulfillable {
			switch u.Reason {
			case ReasonUnknownItem:
				fmt.Fprintf(&b, "  - %s: we do not carry this item\n", u.ItemName)
			case ReasonOutOfStock:
				fmt.Fprintf(&b, "  - %s: currently out of stock\n", u.ItemName)
			}
		}
	}

	if !fulfilled && len(in.Quote.Unfulfillable) == 0 {
		b.WriteString("\nWe could not match any items in your request to our catalog.\n")
	}

	b.WriteString("\nBest regards,\nThe Paper Supply Team\n")
	return b.String(), nil
}

func findQuoteLine(q Quote, itemName string) *QuoteLine {
	for i := range q.Lines {
		if q.Lines[i].ItemName == itemName {
			return &q.Lines[i]
		}
	}
	return nil
}

func totalCharged(sales []SaleOutcome) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(s.Amount)
	}
	return total
}
