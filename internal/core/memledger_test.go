package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/core"
)

func day(d int) time.Time {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func appendEvent(t *testing.T, store core.LedgerStore, item string, kind core.EventKind, units int64, amount string, on time.Time) int64 {
	t.Helper()
	name := item
	u := units
	ev := core.LedgerEvent{
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
		OccurredOn: on,
	}
	if item != "" {
		ev.ItemName = &name
		ev.Units = &u
	}
	id, err := store.Append(context.Background(), ev)
	require.NoError(t, err)
	return id
}

func TestMemLedger_StockFoldRespectsCutoff(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	appendEvent(t, store, "A4 paper", core.EventStockOrder, 500, "25.00", day(0))
	appendEvent(t, store, "A4 paper", core.EventSale, 200, "10.00", day(2))
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(5))

	tests := []struct {
		cutoff time.Time
		want   int64
	}{
		{day(0).AddDate(0, 0, -1), 0},
		{day(0), 500},
		{day(1), 500},
		{day(2), 300},
		{day(5), 400},
		{day(30), 400},
	}
	for _, tt := range tests {
		stock, err := store.StockAsOf(ctx, "A4 paper", tt.cutoff)
		require.NoError(t, err)
		assert.Equal(t, tt.want, stock, "cutoff %s", tt.cutoff.Format("2006-01-02"))
	}
}

func TestMemLedger_FoldsIgnoreInsertionOrder(t *testing.T) {
	ctx := context.Background()

	// Same events, one ledger in date order and one with the backdated
	// events appended last. Folds compare on occurred_on, never append order.
	events := []struct {
		item   string
		kind   core.EventKind
		units  int64
		amount string
		on     time.Time
	}{
		{"", core.EventSale, 0, "50000", day(0)},
		{"A4 paper", core.EventStockOrder, 500, "25.00", day(0)},
		{"A4 paper", core.EventSale, 200, "10.00", day(2)},
		{"A4 paper", core.EventStockOrder, 100, "5.00", day(4)},
	}

	forward := core.NewMemLedger()
	for _, ev := range events {
		appendEvent(t, forward, ev.item, ev.kind, ev.units, ev.amount, ev.on)
	}
	backward := core.NewMemLedger()
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		appendEvent(t, backward, ev.item, ev.kind, ev.units, ev.amount, ev.on)
	}

	for d := -1; d <= 5; d++ {
		cutoff := day(d)
		a, err := forward.StockAsOf(ctx, "A4 paper", cutoff)
		require.NoError(t, err)
		b, err := backward.StockAsOf(ctx, "A4 paper", cutoff)
		require.NoError(t, err)
		assert.Equal(t, a, b, "stock at %s", cutoff.Format("2006-01-02"))

		ca, err := forward.CashAsOf(ctx, cutoff)
		require.NoError(t, err)
		cb, err := backward.CashAsOf(ctx, cutoff)
		require.NoError(t, err)
		assert.True(t, ca.Equal(cb), "cash at %s: %s vs %s", cutoff.Format("2006-01-02"), ca, cb)
	}
}

func TestMemLedger_CashFold(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	// Opening balance: a sale with no item is a pure cash injection.
	appendEvent(t, store, "", core.EventSale, 0, "50000", day(0))
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 500, "25.00", day(1))
	appendEvent(t, store, "A4 paper", core.EventSale, 100, "9.50", day(2))

	cash, err := store.CashAsOf(ctx, day(10))
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.RequireFromString("49984.5")), "cash = %s", cash)

	// Before the purchase only the injection counts.
	cash, err = store.CashAsOf(ctx, day(0))
	require.NoError(t, err)
	assert.True(t, cash.Equal(decimal.NewFromInt(50000)))
}

func TestMemLedger_AppendRejectsInvalidKind(t *testing.T) {
	store := core.NewMemLedger()
	name := "A4 paper"
	units := int64(5)
	_, err := store.Append(context.Background(), core.LedgerEvent{
		ItemName:   &name,
		Kind:       core.EventKind("refund"),
		Units:      &units,
		Amount:     decimal.NewFromInt(1),
		OccurredOn: day(0),
	})
	assert.ErrorIs(t, err, core.ErrInvalidEventKind)
}

func TestMemLedger_AllPositiveStockExcludesSoldOut(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(0))
	appendEvent(t, store, "Cardstock", core.EventStockOrder, 50, "7.50", day(0))
	appendEvent(t, store, "Cardstock", core.EventSale, 50, "8.00", day(1))

	snapshot, err := store.AllPositiveStockAsOf(ctx, day(10))
	require.NoError(t, err)

	assert.Equal(t, map[string]int64{"A4 paper": 100}, snapshot)
	_, present := snapshot["Cardstock"]
	assert.False(t, present, "sold-out item must be absent, not zero")
}

func TestMemLedger_AppendSaleCapped(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()
	unit := decimal.RequireFromString("0.05")

	appendEvent(t, store, "A4 paper", core.EventStockOrder, 300, "15.00", day(0))

	// Ask for more than available: capped, not rejected.
	commit, err := store.AppendSaleCapped(ctx, "A4 paper", 500, unit, day(1))
	require.NoError(t, err)
	assert.Equal(t, int64(300), commit.CommittedUnits)
	assert.True(t, commit.Amount.Equal(decimal.RequireFromString("15")), "amount = %s", commit.Amount)
	assert.NotZero(t, commit.EventID)

	// Nothing left: downgraded to zero, no event appended.
	commit, err = store.AppendSaleCapped(ctx, "A4 paper", 10, unit, day(2))
	require.NoError(t, err)
	assert.Zero(t, commit.CommittedUnits)
	assert.True(t, commit.Amount.IsZero())
	assert.Zero(t, commit.EventID)

	stock, err := store.StockAsOf(ctx, "A4 paper", day(10))
	require.NoError(t, err)
	assert.Zero(t, stock, "stock must never go negative")
}

func TestMemLedger_AppendSaleCapped_RejectsNonPositiveUnits(t *testing.T) {
	store := core.NewMemLedger()
	_, err := store.AppendSaleCapped(context.Background(), "A4 paper", 0, decimal.NewFromInt(1), day(0))
	assert.Error(t, err)
}

func TestMemLedger_TopSellersOrderingAndTies(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	appendEvent(t, store, "Cardstock", core.EventSale, 10, "100.00", day(1))
	appendEvent(t, store, "A4 paper", core.EventSale, 50, "100.00", day(1))
	appendEvent(t, store, "Glossy paper", core.EventSale, 5, "250.00", day(2))

	sellers, err := store.TopSellersAsOf(ctx, day(10), 5)
	require.NoError(t, err)
	require.Len(t, sellers, 3)

	assert.Equal(t, "Glossy paper", sellers[0].ItemName)
	// Equal revenue ties break on item name ascending.
	assert.Equal(t, "A4 paper", sellers[1].ItemName)
	assert.Equal(t, "Cardstock", sellers[2].ItemName)

	limited, err := store.TopSellersAsOf(ctx, day(10), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemLedger_SearchQuoteHistory(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	records := []core.QuoteRecord{
		{Request: "Need 200 sheets of glossy paper for a wedding", Explanation: "Bulk discount applied", OrderDate: day(3)},
		{Request: "cardstock for invitations", Explanation: "glossy finish suggested", OrderDate: day(5)},
		{Request: "plain A4 paper order", Explanation: "standard pricing", OrderDate: day(5)},
	}
	for _, rec := range records {
		_, err := store.RecordQuoteHistory(ctx, rec)
		require.NoError(t, err)
	}

	// Each term may match either field: "glossy" hits request #1 and explanation #2.
	got, err := store.SearchQuoteHistory(ctx, []string{"GLOSSY"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest order date first, id ascending on ties.
	assert.Equal(t, "cardstock for invitations", got[0].Request)
	assert.Equal(t, "Need 200 sheets of glossy paper for a wedding", got[1].Request)

	// Terms combine with AND.
	got, err = store.SearchQuoteHistory(ctx, []string{"glossy", "wedding"}, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(3), got[0].OrderDate)

	got, err = store.SearchQuoteHistory(ctx, []string{"glossy", "spreadsheets"}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Limit truncates after ordering.
	got, err = store.SearchQuoteHistory(ctx, []string{"paper"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "plain A4 paper order", got[0].Request)
}

func TestMemLedger_ReplacePoliciesIsFullReplace(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	require.NoError(t, store.ReplacePolicies(ctx, []core.InventoryPolicy{
		{ItemName: "A4 paper", MinStockLevel: 50, ReferenceUnitPrice: decimal.RequireFromString("0.05")},
		{ItemName: "Cardstock", MinStockLevel: 20, ReferenceUnitPrice: decimal.RequireFromString("0.15")},
	}))

	require.NoError(t, store.ReplacePolicies(ctx, []core.InventoryPolicy{
		{ItemName: "Glossy paper", MinStockLevel: 10, ReferenceUnitPrice: decimal.RequireFromString("0.20")},
	}))

	policies, err := store.Policies(ctx)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, "Glossy paper", policies[0].ItemName)

	_, managed, err := store.Policy(ctx, "A4 paper")
	require.NoError(t, err)
	assert.False(t, managed, "old policies must not survive a replace")
}
