package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"paper-trader/internal/core"

	"go.uber.org/zap"
)

type appService struct {
	store      core.LedgerStore
	catalog    *core.Catalog
	normalizer *core.Normalizer
	pipeline   *core.Pipeline
	reporter   *core.Reporter
	view       *core.InventoryView
}

// NewAppService wires the domain components behind ApplicationService.
// parser and composer are the pipeline's external collaborators; pass the
// deterministic TemplateComposer when no model should be in the loop.
func NewAppService(
	store core.LedgerStore,
	catalog *core.Catalog,
	parser core.RequestParser,
	composer core.ResponseComposer,
	timeouts core.Timeouts,
	log *zap.Logger,
) ApplicationService {
	return &appService{
		store:      store,
		catalog:    catalog,
		normalizer: core.NewNormalizer(catalog),
		pipeline:   core.NewPipeline(store, catalog, parser, composer, timeouts, log),
		reporter:   core.NewReporter(store, catalog),
		view:       core.NewInventoryView(store),
	}
}

func (s *appService) ProcessRequest(ctx context.Context, text string, requestDate time.Time) (*core.Result, error) {
	return s.pipeline.Process(ctx, text, requestDate)
}

func (s *appService) ProcessOrder(ctx context.Context, text string, lines []core.RequestLine, requestDate time.Time) (*core.Result, error) {
	return s.pipeline.ProcessLines(ctx, text, lines, requestDate)
}

func (s *appService) GetFinancialReport(ctx context.Context, asOf time.Time) (*core.FinancialReport, error) {
	return s.reporter.Report(ctx, asOf)
}

func (s *appService) RecordSale(ctx context.Context, req RecordEventRequest) (int64, error) {
	return s.recordEvent(ctx, core.EventSale, req)
}

func (s *appService) RecordStockOrder(ctx context.Context, req RecordEventRequest) (int64, error) {
	return s.recordEvent(ctx, core.EventStockOrder, req)
}

func (s *appService) recordEvent(ctx context.Context, kind core.EventKind, req RecordEventRequest) (int64, error) {
	if req.ItemName == "" {
		return 0, fmt.Errorf("item name is required")
	}
	if req.Units <= 0 {
		return 0, fmt.Errorf("units must be positive, got %d", req.Units)
	}
	// Resolve the name before it becomes a join key in the ledger; a typo'd
	// item recorded verbatim would never fold into any stock position.
	name, ok := s.normalizer.Normalize(req.ItemName)
	if !ok {
		return 0, fmt.Errorf("%w: %q", core.ErrUnknownItem, req.ItemName)
	}
	units := req.Units
	return s.store.Append(ctx, core.LedgerEvent{
		ItemName:   &name,
		Kind:       kind,
		Units:      &units,
		Amount:     req.TotalAmount,
		OccurredOn: req.Date,
	})
}

func (s *appService) SearchQuoteHistory(ctx context.Context, terms []string, limit int) ([]core.QuoteRecord, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.store.SearchQuoteHistory(ctx, terms, limit)
}

func (s *appService) GetStock(ctx context.Context, asOf time.Time) (*StockResult, error) {
	snapshot, err := s.view.AllStock(ctx, asOf)
	if err != nil {
		return nil, err
	}

	result := &StockResult{AsOf: core.DateOnly(asOf)}
	for name, units := range snapshot {
		result.Items = append(result.Items, StockItem{ItemName: name, Units: units})
	}
	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].ItemName < result.Items[j].ItemName
	})
	return result, nil
}

func (s *appService) GetItemStatus(ctx context.Context, itemName string, asOf time.Time) (*core.ItemStatus, error) {
	canonical, ok := s.normalizer.Normalize(itemName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownItem, itemName)
	}
	status, err := s.view.Status(ctx, canonical, asOf)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *appService) SeedDemo(ctx context.Context, startDate time.Time) error {
	return core.Seed(ctx, s.store, s.catalog, core.DefaultSeedOptions(startDate))
}

func (s *appService) Catalog() *core.Catalog {
	return s.catalog
}
