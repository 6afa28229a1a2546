package core_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"paper-trader/internal/core"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE quotes, quote_requests, inventory_policies, ledger_events RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}

	return pool
}

func TestLedger_AppendAndFold(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewLedger(pool)
	ctx := context.Background()

	appendEvent(t, ledger, "", core.EventSale, 0, "50000", day(0))
	appendEvent(t, ledger, "A4 paper", core.EventStockOrder, 500, "25.00", day(0))
	appendEvent(t, ledger, "A4 paper", core.EventSale, 200, "9.50", day(2))

	stock, err := ledger.StockAsOf(ctx, "A4 paper", day(1))
	if err != nil {
		t.Fatalf("StockAsOf: %v", err)
	}
	if stock != 500 {
		t.Errorf("stock before the sale = %d, want 500", stock)
	}

	stock, err = ledger.StockAsOf(ctx, "A4 paper", day(2))
	if err != nil {
		t.Fatalf("StockAsOf: %v", err)
	}
	if stock != 300 {
		t.Errorf("stock after the sale = %d, want 300", stock)
	}

	cash, err := ledger.CashAsOf(ctx, day(10))
	if err != nil {
		t.Fatalf("CashAsOf: %v", err)
	}
	if !cash.Equal(decimal.RequireFromString("49984.5")) {
		t.Errorf("cash = %s, want 49984.5", cash)
	}

	snapshot, err := ledger.AllPositiveStockAsOf(ctx, day(10))
	if err != nil {
		t.Fatalf("AllPositiveStockAsOf: %v", err)
	}
	if snapshot["A4 paper"] != 300 {
		t.Errorf("snapshot = %v, want A4 paper: 300", snapshot)
	}
}

func TestLedger_FoldsIgnoreInsertionOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewLedger(pool)
	ctx := context.Background()

	// Backdated events appended after later-dated ones. The aggregation
	// compares occurred_on, so insertion order must not matter.
	appendEvent(t, ledger, "A4 paper", core.EventStockOrder, 100, "5.00", day(4))
	appendEvent(t, ledger, "A4 paper", core.EventSale, 200, "10.00", day(2))
	appendEvent(t, ledger, "A4 paper", core.EventStockOrder, 500, "25.00", day(0))
	appendEvent(t, ledger, "", core.EventSale, 0, "50000", day(0))

	wantStock := map[int]int64{0: 500, 1: 500, 2: 300, 3: 300, 4: 400}
	for d, want := range wantStock {
		stock, err := ledger.StockAsOf(ctx, "A4 paper", day(d))
		if err != nil {
			t.Fatalf("StockAsOf day %d: %v", d, err)
		}
		if stock != want {
			t.Errorf("stock at day %d = %d, want %d", d, stock, want)
		}
	}

	cash, err := ledger.CashAsOf(ctx, day(1))
	if err != nil {
		t.Fatalf("CashAsOf: %v", err)
	}
	if !cash.Equal(decimal.RequireFromString("49975")) {
		t.Errorf("cash mid-window = %s, want 49975", cash)
	}
}

func TestLedger_AppendSaleCapped_Concurrent(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewLedger(pool)
	ctx := context.Background()

	appendEvent(t, ledger, "A4 paper", core.EventStockOrder, 100, "5.00", day(0))

	const workers = 8
	unit := decimal.RequireFromString("0.05")
	results := make([]core.SaleCommit, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			commit, err := ledger.AppendSaleCapped(ctx, "A4 paper", 30, unit, day(1))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = commit
		}(i)
	}
	wg.Wait()

	var total int64
	for _, c := range results {
		total += c.CommittedUnits
	}
	if total != 100 {
		t.Errorf("total committed = %d, want exactly the 100 available", total)
	}

	stock, err := ledger.StockAsOf(ctx, "A4 paper", day(1))
	if err != nil {
		t.Fatalf("StockAsOf: %v", err)
	}
	if stock != 0 {
		t.Errorf("final stock = %d, want 0 (never negative)", stock)
	}
}

func TestLedger_QuoteHistoryRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewLedger(pool)
	ctx := context.Background()

	records := []core.QuoteRecord{
		{Request: "glossy paper for a trade show", Explanation: "bulk tier applied", TotalAmount: decimal.RequireFromString("120.00"), EventType: "trade show", OrderDate: day(1)},
		{Request: "cardstock for wedding invitations", Explanation: "glossy finish offered", TotalAmount: decimal.RequireFromString("85.00"), EventType: "wedding", OrderDate: day(4)},
	}
	for _, rec := range records {
		if _, err := ledger.RecordQuoteHistory(ctx, rec); err != nil {
			t.Fatalf("RecordQuoteHistory: %v", err)
		}
	}

	got, err := ledger.SearchQuoteHistory(ctx, []string{"glossy"}, 10)
	if err != nil {
		t.Fatalf("SearchQuoteHistory: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("matches = %d, want 2 (term matches either text field)", len(got))
	}
	if !got[0].OrderDate.After(got[1].OrderDate) {
		t.Errorf("results not ordered newest first: %s then %s", got[0].OrderDate, got[1].OrderDate)
	}

	got, err = ledger.SearchQuoteHistory(ctx, []string{"glossy", "wedding"}, 10)
	if err != nil {
		t.Fatalf("SearchQuoteHistory: %v", err)
	}
	if len(got) != 1 || got[0].EventType != "wedding" {
		t.Errorf("AND search = %+v, want only the wedding record", got)
	}
}

func TestLedger_PolicyReplace(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ledger := core.NewLedger(pool)
	ctx := context.Background()

	err := ledger.ReplacePolicies(ctx, []core.InventoryPolicy{
		{ItemName: "A4 paper", MinStockLevel: 50, ReferenceUnitPrice: decimal.RequireFromString("0.05")},
	})
	if err != nil {
		t.Fatalf("ReplacePolicies: %v", err)
	}

	err = ledger.ReplacePolicies(ctx, []core.InventoryPolicy{
		{ItemName: "Cardstock", MinStockLevel: 25, ReferenceUnitPrice: decimal.RequireFromString("0.15")},
	})
	if err != nil {
		t.Fatalf("ReplacePolicies: %v", err)
	}

	_, managed, err := ledger.Policy(ctx, "A4 paper")
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	if managed {
		t.Error("old policy survived a full replace")
	}

	policies, err := ledger.Policies(ctx)
	if err != nil {
		t.Fatalf("Policies: %v", err)
	}
	if len(policies) != 1 || policies[0].ItemName != "Cardstock" {
		t.Errorf("policies = %+v, want only Cardstock", policies)
	}
}
