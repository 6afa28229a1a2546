package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

func newService(t *testing.T) (app.ApplicationService, core.LedgerStore) {
	t.Helper()
	store := core.NewMemLedger()
	svc := app.NewAppService(store, core.DefaultCatalog(), nil, core.TemplateComposer{}, core.Timeouts{}, nil)
	return svc, store
}

func TestAppService_RecordEventValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordSale(ctx, app.RecordEventRequest{Units: 5, TotalAmount: decimal.NewFromInt(1), Date: date})
	assert.Error(t, err, "item name is required")

	_, err = svc.RecordSale(ctx, app.RecordEventRequest{ItemName: "A4 paper", Units: 0, TotalAmount: decimal.NewFromInt(1), Date: date})
	assert.Error(t, err, "units must be positive")

	id, err := svc.RecordStockOrder(ctx, app.RecordEventRequest{
		ItemName: "A4 paper", Units: 100, TotalAmount: decimal.NewFromInt(5), Date: date,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)
}

func TestAppService_UnknownItemsAreRejected(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordSale(ctx, app.RecordEventRequest{
		ItemName: "vibranium sheets", Units: 10, TotalAmount: decimal.NewFromInt(1), Date: date,
	})
	require.ErrorIs(t, err, core.ErrUnknownItem)

	_, err = svc.GetItemStatus(ctx, "vibranium sheets", date)
	require.ErrorIs(t, err, core.ErrUnknownItem)

	// Nothing reached the ledger.
	stock, err := store.AllPositiveStockAsOf(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, stock)
}

func TestAppService_RecordEventResolvesAliases(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordStockOrder(ctx, app.RecordEventRequest{
		ItemName: "printer paper", Units: 200, TotalAmount: decimal.NewFromInt(10), Date: date,
	})
	require.NoError(t, err)

	// Stored under the canonical name, so folds and queries agree.
	units, err := store.StockAsOf(ctx, "A4 paper", date)
	require.NoError(t, err)
	assert.Equal(t, int64(200), units)

	status, err := svc.GetItemStatus(ctx, "printer paper", date)
	require.NoError(t, err)
	assert.Equal(t, "A4 paper", status.ItemName)
	assert.Equal(t, int64(200), status.Stock)
}

func TestAppService_StockListingSortedByName(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, item := range []string{"Glossy paper", "A4 paper", "Cardstock"} {
		name := item
		units := int64(10)
		_, err := store.Append(ctx, core.LedgerEvent{
			ItemName: &name, Kind: core.EventStockOrder, Units: &units,
			Amount: decimal.NewFromInt(1), OccurredOn: date,
		})
		require.NoError(t, err)
	}

	result, err := svc.GetStock(ctx, date)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "A4 paper", result.Items[0].ItemName)
	assert.Equal(t, "Cardstock", result.Items[1].ItemName)
	assert.Equal(t, "Glossy paper", result.Items[2].ItemName)
}

func TestAppService_SeedDemoIsQueryable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.SeedDemo(ctx, start))

	report, err := svc.GetFinancialReport(ctx, start)
	require.NoError(t, err)
	assert.True(t, report.CashBalance.IsPositive())
	assert.True(t, report.InventoryValue.IsPositive())
	assert.NotEmpty(t, report.Inventory)
}
