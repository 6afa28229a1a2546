package core

import (
	"context"
	"time"
)

// InventoryView derives stock positions from the ledger. It owns no state of
// its own — every answer is a point-in-time fold over events plus a policy
// lookup.
type InventoryView struct {
	store LedgerStore
}

func NewInventoryView(store LedgerStore) *InventoryView {
	return &InventoryView{store: store}
}

// StockLevel returns net stock for one item as of the given date. Zero for
// items with no history.
func (v *InventoryView) StockLevel(ctx context.Context, itemName string, asOf time.Time) (int64, error) {
	return v.store.StockAsOf(ctx, itemName, asOf)
}

// AllStock returns every item with strictly positive stock. Sold-out items
// are absent, the same as items never stocked — callers that care about the
// difference use Status.
func (v *InventoryView) AllStock(ctx context.Context, asOf time.Time) (map[string]int64, error) {
	return v.store.AllPositiveStockAsOf(ctx, asOf)
}

// Status combines the stock level with the item's reorder policy. An item
// with no policy row reports Managed=false and never NeedsReorder — "not
// managed" is a distinct state, not a reorder signal and not an error.
func (v *InventoryView) Status(ctx context.Context, itemName string, asOf time.Time) (ItemStatus, error) {
	stock, err := v.store.StockAsOf(ctx, itemName, asOf)
	if err != nil {
		return ItemStatus{}, err
	}

	status := ItemStatus{ItemName: itemName, Stock: stock}
	policy, managed, err := v.store.Policy(ctx, itemName)
	if err != nil {
		return ItemStatus{}, err
	}
	if managed {
		status.Managed = true
		status.MinStock = policy.MinStockLevel
		status.NeedsReorder = stock < policy.MinStockLevel
	}
	return status, nil
}
