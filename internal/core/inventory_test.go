package core_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/core"
)

func TestInventoryView_Status(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()
	view := core.NewInventoryView(store)

	appendEvent(t, store, "A4 paper", core.EventStockOrder, 40, "2.00", day(0))
	require.NoError(t, store.ReplacePolicies(ctx, []core.InventoryPolicy{
		{ItemName: "A4 paper", MinStockLevel: 50, ReferenceUnitPrice: decimal.RequireFromString("0.05")},
	}))

	// Managed and below minimum.
	status, err := view.Status(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.True(t, status.Managed)
	assert.True(t, status.NeedsReorder)
	assert.Equal(t, int64(40), status.Stock)

	// Restock above minimum clears the signal.
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(2))
	status, err = view.Status(ctx, "A4 paper", day(2))
	require.NoError(t, err)
	assert.False(t, status.NeedsReorder)

	// Unmanaged item at zero stock: distinct state, never a reorder signal.
	status, err = view.Status(ctx, "Cardstock", day(2))
	require.NoError(t, err)
	assert.False(t, status.Managed)
	assert.False(t, status.NeedsReorder)
	assert.Zero(t, status.Stock)
}
