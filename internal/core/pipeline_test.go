package core_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-trader/internal/core"
)

type stubParser struct {
	lines []core.RequestLine
	err   error
}

func (p stubParser) Parse(context.Context, string, time.Time) ([]core.RequestLine, error) {
	return p.lines, p.err
}

type failingComposer struct{}

func (failingComposer) Compose(context.Context, core.ComposeInput) (string, error) {
	return "", errors.New("model unavailable")
}

func newPipeline(store core.LedgerStore, parser core.RequestParser, composer core.ResponseComposer) *core.Pipeline {
	return core.NewPipeline(store, core.DefaultCatalog(), parser, composer, core.Timeouts{}, nil)
}

func TestPipeline_FulfillsSingleLineOrder(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	appendEvent(t, store, "A4 paper", core.EventStockOrder, 600, "30.00", day(0))

	p := newPipeline(store, nil, core.TemplateComposer{})
	result, err := p.ProcessLines(ctx, "500 sheets of printer paper please",
		[]core.RequestLine{{ItemName: "printer paper", Quantity: 500}}, day(1))
	require.NoError(t, err)

	assert.Equal(t, core.StageDone, result.Stage)
	assert.True(t, result.Fulfilled())
	require.Len(t, result.Sales, 1)

	sale := result.Sales[0]
	assert.Equal(t, "A4 paper", sale.ItemName)
	assert.Equal(t, int64(500), sale.CommittedUnits)
	assert.False(t, sale.Downgraded)
	// 500 * 0.05 with the 10% tier = 22.50 exact on the line.
	assert.True(t, sale.Amount.Equal(decimal.RequireFromString("22.5")), "amount = %s", sale.Amount)
	// The customer is charged the rounded total.
	assert.True(t, result.TotalCharged.Equal(decimal.NewFromInt(23)), "total = %s", result.TotalCharged)

	// 101-1000 units → +4 days.
	assert.Equal(t, day(5), sale.DeliveryEstimate)

	stock, err := store.StockAsOf(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.Equal(t, int64(100), stock)

	assert.Contains(t, result.Response, "A4 paper")
	assert.Contains(t, result.Response, "10% bulk discount")
}

func TestPipeline_CapsOversizedOrderToStock(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	appendEvent(t, store, "", core.EventSale, 0, "50000", day(0))
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 500, "25.00", day(0))

	p := newPipeline(store, nil, core.TemplateComposer{})
	result, err := p.ProcessLines(ctx, "600 sheets of A4 paper",
		[]core.RequestLine{{ItemName: "A4 paper", Quantity: 600}}, day(1))
	require.NoError(t, err)

	require.Len(t, result.Sales, 1)
	sale := result.Sales[0]
	// Capped to the 500 on hand; the 10% tier follows the requested 600.
	assert.Equal(t, int64(500), sale.CommittedUnits)
	assert.True(t, sale.Amount.Equal(decimal.RequireFromString("22.5")), "amount = %s", sale.Amount)
	assert.True(t, result.TotalCharged.Equal(decimal.NewFromInt(23)), "total = %s", result.TotalCharged)

	stock, err := store.StockAsOf(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.Zero(t, stock)

	// Sold out is omitted from the positive snapshot, same as never stocked.
	snapshot, err := store.AllPositiveStockAsOf(ctx, day(1))
	require.NoError(t, err)
	_, present := snapshot["A4 paper"]
	assert.False(t, present)

	cash, err := store.CashAsOf(ctx, day(1))
	require.NoError(t, err)
	// 50000 - 25 + 22.50
	assert.True(t, cash.Equal(decimal.RequireFromString("49997.5")), "cash = %s", cash)
}

func TestPipeline_ZeroFulfillableIsSuccessNotFailure(t *testing.T) {
	store := core.NewMemLedger()
	p := newPipeline(store, nil, core.TemplateComposer{})

	result, err := p.ProcessLines(context.Background(), "exotic goods",
		[]core.RequestLine{{ItemName: "industrial shredder", Quantity: 3}}, day(0))
	require.NoError(t, err, "an empty quote completes the pipeline")

	assert.Equal(t, core.StageDone, result.Stage)
	assert.False(t, result.Fulfilled())
	assert.Empty(t, result.Sales)
	require.Len(t, result.Quote.Unfulfillable, 1)
	assert.Equal(t, core.ReasonUnknownItem, result.Quote.Unfulfillable[0].Reason)
	assert.True(t, result.TotalCharged.IsZero())
	assert.Contains(t, result.Response, "do not carry")
}

func TestPipeline_ParserFailureFailsRunBeforeLedgerTouch(t *testing.T) {
	store := core.NewMemLedger()
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(0))

	p := newPipeline(store, stubParser{err: errors.New("upstream 500")}, core.TemplateComposer{})
	_, err := p.Process(context.Background(), "anything", day(1))
	assert.ErrorIs(t, err, core.ErrPipelineFailed)

	stock, err := store.StockAsOf(context.Background(), "A4 paper", day(1))
	require.NoError(t, err)
	assert.Equal(t, int64(100), stock, "a failed parse must not move stock")
}

func TestPipeline_ComposerFailureKeepsCommittedSales(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(0))

	p := newPipeline(store, nil, failingComposer{})
	_, err := p.ProcessLines(ctx, "paper please",
		[]core.RequestLine{{ItemName: "A4 paper", Quantity: 50}}, day(1))
	assert.ErrorIs(t, err, core.ErrPipelineFailed)

	// The sale committed before composition; failure does not roll it back.
	stock, err := store.StockAsOf(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.Equal(t, int64(50), stock)
}

func TestPipeline_DowngradesWhenSnapshotGoesStale(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()
	appendEvent(t, store, "A4 paper", core.EventStockOrder, 100, "5.00", day(0))

	p := newPipeline(store, nil, core.TemplateComposer{})

	// Two lines for the same item in one request: the second line's quote is
	// based on the same snapshot, but the commit re-reads stock and caps it.
	result, err := p.ProcessLines(ctx, "two batches",
		[]core.RequestLine{
			{ItemName: "A4 paper", Quantity: 80},
			{ItemName: "A4 paper", Quantity: 80},
		}, day(1))
	require.NoError(t, err)
	require.Len(t, result.Sales, 2)

	assert.Equal(t, int64(80), result.Sales[0].CommittedUnits)
	assert.Equal(t, int64(20), result.Sales[1].CommittedUnits)
	assert.True(t, result.Sales[1].Downgraded)

	stock, err := store.StockAsOf(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.Zero(t, stock)
}

func TestPipeline_ConcurrentRunsNeverOversell(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()

	const opening = 1000
	appendEvent(t, store, "A4 paper", core.EventStockOrder, opening, "50.00", day(0))

	p := newPipeline(store, nil, core.TemplateComposer{})

	const workers = 20
	var wg sync.WaitGroup
	committed := make([]int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := p.ProcessLines(ctx, "bulk order",
				[]core.RequestLine{{ItemName: "A4 paper", Quantity: 90}}, day(1))
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			for _, s := range result.Sales {
				committed[i] += s.CommittedUnits
			}
		}(i)
	}
	wg.Wait()

	var total int64
	for _, c := range committed {
		total += c
	}
	assert.Equal(t, int64(opening), total, "exactly the opening stock is sellable")

	stock, err := store.StockAsOf(ctx, "A4 paper", day(1))
	require.NoError(t, err)
	assert.Zero(t, stock)
}

func TestPipeline_ResponseOmitsInternalPricing(t *testing.T) {
	store := core.NewMemLedger()
	ctx := context.Background()
	appendEvent(t, store, "Cardstock", core.EventStockOrder, 500, "75.00", day(0))

	p := newPipeline(store, nil, core.TemplateComposer{})
	result, err := p.ProcessLines(ctx, "cardstock",
		[]core.RequestLine{{ItemName: "Cardstock", Quantity: 200}}, day(1))
	require.NoError(t, err)

	lower := strings.ToLower(result.Response)
	assert.NotContains(t, lower, "reference")
	assert.NotContains(t, lower, "stage")
	assert.NotContains(t, lower, "margin")
}
