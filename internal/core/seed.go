package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// SeedOptions controls the deterministic demo seed.
type SeedOptions struct {
	StartDate   time.Time
	OpeningCash decimal.Decimal
	// Coverage is the fraction of catalog items to stock (default 0.4).
	Coverage float64
	// RandSeed makes item selection and stock levels reproducible.
	RandSeed int64
}

// DefaultSeedOptions mirrors the canonical simulation setup: $50,000 opening
// cash and 40% of the catalog stocked.
func DefaultSeedOptions(start time.Time) SeedOptions {
	return SeedOptions{
		StartDate:   start,
		OpeningCash: decimal.NewFromInt(50000),
		Coverage:    0.4,
		RandSeed:    137,
	}
}

// Seed initialises a store for a fresh simulation run:
//
//   - one dated cash-injection sale (nil item) for the opening balance,
//   - a random-but-reproducible selection of catalog items, each with one
//     opening stock_order event (200-799 units at catalog price) and a policy
//     row (min level 50-149, reference price = catalog price).
//
// Policies are replaced wholesale; Seed assumes an empty event log and is an
// administrative operation, not part of request processing.
func Seed(ctx context.Context, store LedgerStore, catalog *Catalog, opts SeedOptions) error {
	if opts.Coverage <= 0 || opts.Coverage > 1 {
		opts.Coverage = 0.4
	}
	start := DateOnly(opts.StartDate)

	if _, err := store.Append(ctx, LedgerEvent{
		Kind:       EventSale,
		Amount:     opts.OpeningCash,
		OccurredOn: start,
	}); err != nil {
		return fmt.Errorf("failed to seed opening balance: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.RandSeed))
	items := catalog.Items()
	count := int(float64(len(items)) * opts.Coverage)
	selected := rng.Perm(len(items))[:count]

	var policies []InventoryPolicy
	for _, idx := range selected {
		item := items[idx]
		stock := int64(200 + rng.Intn(600))
		minLevel := int64(50 + rng.Intn(100))

		name := item.Name
		units := stock
		cost := item.UnitPrice.Mul(decimal.NewFromInt(stock))
		if _, err := store.Append(ctx, LedgerEvent{
			ItemName:   &name,
			Kind:       EventStockOrder,
			Units:      &units,
			Amount:     cost,
			OccurredOn: start,
		}); err != nil {
			return fmt.Errorf("failed to seed stock for %s: %w", item.Name, err)
		}

		policies = append(policies, InventoryPolicy{
			ItemName:           item.Name,
			MinStockLevel:      minLevel,
			ReferenceUnitPrice: item.UnitPrice,
		})
	}

	if err := store.ReplacePolicies(ctx, policies); err != nil {
		return fmt.Errorf("failed to seed policies: %w", err)
	}
	return nil
}
