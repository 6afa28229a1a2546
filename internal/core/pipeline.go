package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Stage identifies one step of the fulfillment pipeline.
type Stage string

const (
	StageStart            Stage = "start"
	StageAvailability     Stage = "availability"
	StageQuoting          Stage = "quoting"
	StageSaleRecording    Stage = "sale_recording"
	StageResponseComposed Stage = "response_composed"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// RequestParser turns a raw customer request into structured line items.
// Implementations may be model-backed, rule-based, or human; the pipeline
// only depends on this contract.
type RequestParser interface {
	Parse(ctx context.Context, rawText string, requestDate time.Time) ([]RequestLine, error)
}

// ComposeInput carries every accumulated stage output to the response
// composer. Nothing here includes internal costs, margins, or stage names.
type ComposeInput struct {
	RawText          string
	RequestDate      time.Time
	Quote            Quote
	Sales            []SaleOutcome
	DeliveryEstimate time.Time
	Precedents       []QuoteRecord
}

// ResponseComposer synthesizes the customer-facing reply. The pipeline makes
// no assumptions about its wording beyond it embedding the supplied
// fulfilled/unfulfilled breakdown.
type ResponseComposer interface {
	Compose(ctx context.Context, in ComposeInput) (string, error)
}

// SaleOutcome is the committed result for one quoted line. Downgraded means
// stock ran out between the availability snapshot and the commit, so fewer
// units (possibly zero) were sold than quoted.
type SaleOutcome struct {
	ItemName         string          `json:"item_name"`
	RequestedUnits   int64           `json:"requested_units"`
	CommittedUnits   int64           `json:"committed_units"`
	Amount           decimal.Decimal `json:"amount"`
	EventID          int64           `json:"event_id,omitempty"`
	Downgraded       bool            `json:"downgraded,omitempty"`
	DeliveryEstimate time.Time       `json:"delivery_estimate"`
}

// Result is the terminal output of one pipeline run.
type Result struct {
	RunID        string          `json:"run_id"`
	Stage        Stage           `json:"stage"`
	Quote        Quote           `json:"quote"`
	Sales        []SaleOutcome   `json:"sales"`
	TotalCharged decimal.Decimal `json:"total_charged"`
	Response     string          `json:"response"`
}

// Fulfilled reports whether any units were actually sold. A run that
// completed with zero fulfillable lines is still a successful run.
func (r *Result) Fulfilled() bool {
	for _, s := range r.Sales {
		if s.CommittedUnits > 0 {
			return true
		}
	}
	return false
}

// Timeouts bounds the external collaborator calls. Zero means the default.
type Timeouts struct {
	Parse   time.Duration
	Compose time.Duration
}

const defaultCollaboratorTimeout = 30 * time.Second

func (t Timeouts) parse() time.Duration {
	if t.Parse > 0 {
		return t.Parse
	}
	return defaultCollaboratorTimeout
}

func (t Timeouts) compose() time.Duration {
	if t.Compose > 0 {
		return t.Compose
	}
	return defaultCollaboratorTimeout
}

// Pipeline processes one customer request through the fixed stage order
// Availability -> Quoting -> SaleRecording -> ResponseComposed. Stages run
// strictly sequentially within a run; many runs may execute concurrently,
// sharing only the LedgerStore. No stage is retried automatically.
//
// The only persisted effect of a run is sale events appended during
// SaleRecording. A failure after a line commits does not roll that line
// back: committed sales are completed transactions.
type Pipeline struct {
	store    LedgerStore
	view     *InventoryView
	engine   *QuoteEngine
	parser   RequestParser
	composer ResponseComposer
	timeouts Timeouts
	log      *zap.Logger
}

func NewPipeline(store LedgerStore, catalog *Catalog, parser RequestParser, composer ResponseComposer, timeouts Timeouts, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	normalizer := NewNormalizer(catalog)
	return &Pipeline{
		store:    store,
		view:     NewInventoryView(store),
		engine:   NewQuoteEngine(catalog, normalizer),
		parser:   parser,
		composer: composer,
		timeouts: timeouts,
		log:      log,
	}
}

// Process runs a free-text request through the parser collaborator and then
// the stage machine. An unparsable request date or parser failure fails the
// run before anything touches the ledger.
func (p *Pipeline) Process(ctx context.Context, rawText string, requestDate time.Time) (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With(zap.String("run_id", runID))

	parseCtx, cancel := context.WithTimeout(ctx, p.timeouts.parse())
	defer cancel()
	lines, err := p.parser.Parse(parseCtx, rawText, requestDate)
	if err != nil {
		log.Error("request parser failed", zap.Error(err))
		return nil, ErrPipelineFailed
	}
	return p.run(ctx, runID, log, rawText, lines, requestDate)
}

// ProcessLines runs pre-parsed line items through the stage machine,
// bypassing the parser collaborator.
func (p *Pipeline) ProcessLines(ctx context.Context, rawText string, lines []RequestLine, requestDate time.Time) (*Result, error) {
	runID := uuid.NewString()
	return p.run(ctx, runID, p.log.With(zap.String("run_id", runID)), rawText, lines, requestDate)
}

func (p *Pipeline) run(ctx context.Context, runID string, log *zap.Logger, rawText string, lines []RequestLine, requestDate time.Time) (*Result, error) {
	result := &Result{RunID: runID, Stage: StageStart, TotalCharged: decimal.Zero}
	asOf := DateOnly(requestDate)

	// Availability: read-only stock/price snapshot as of the request date.
	result.Stage = StageAvailability
	snapshot, err := p.view.AllStock(ctx, asOf)
	if err != nil {
		log.Error("availability snapshot failed", zap.Error(err))
		result.Stage = StageFailed
		return nil, ErrPipelineFailed
	}

	prices, err := p.priceSnapshot(ctx, lines)
	if err != nil {
		log.Error("price snapshot failed", zap.Error(err))
		result.Stage = StageFailed
		return nil, ErrPipelineFailed
	}
	log.Info("availability checked",
		zap.Int("requested_lines", len(lines)),
		zap.Int("items_in_stock", len(snapshot)))

	// Quoting: price the request, consult history for precedent (advisory —
	// a search failure never fails the run).
	result.Stage = StageQuoting
	result.Quote = p.engine.Build(lines, snapshot, prices)

	var precedents []QuoteRecord
	if terms := searchTerms(result.Quote); len(terms) > 0 {
		precedents, err = p.store.SearchQuoteHistory(ctx, terms, 5)
		if err != nil {
			log.Warn("quote history lookup failed", zap.Error(err))
			precedents = nil
		}
	}
	log.Info("quote built",
		zap.Int("fulfillable_lines", len(result.Quote.Lines)),
		zap.Int("unfulfillable_lines", len(result.Quote.Unfulfillable)),
		zap.String("grand_total", result.Quote.GrandTotal.String()))

	// SaleRecording: one sale event per fulfillable line, each its own
	// committable unit. The store re-validates stock under a per-item lock,
	// so a stale snapshot downgrades the line instead of overselling.
	result.Stage = StageSaleRecording
	latestDelivery := asOf
	for _, line := range result.Quote.Lines {
		effectiveUnit := line.UnitPrice.
			Mul(decimal.NewFromInt(100 - line.DiscountPercent)).
			Div(decimal.NewFromInt(100))

		commit, err := p.store.AppendSaleCapped(ctx, line.ItemName, line.FulfillableUnits, effectiveUnit, asOf)
		if err != nil {
			// A hard store error stops further appends. Lines already
			// committed remain valid; nothing is rolled back.
			log.Error("sale append failed",
				zap.String("item", line.ItemName),
				zap.Error(err))
			result.Stage = StageFailed
			return nil, ErrPipelineFailed
		}

		outcome := SaleOutcome{
			ItemName:       line.ItemName,
			RequestedUnits: line.RequestedUnits,
			CommittedUnits: commit.CommittedUnits,
			Amount:         commit.Amount,
			EventID:        commit.EventID,
			Downgraded:     commit.CommittedUnits < line.FulfillableUnits,
		}
		if commit.CommittedUnits > 0 {
			outcome.DeliveryEstimate = EstimateDelivery(asOf, commit.CommittedUnits)
			if outcome.DeliveryEstimate.After(latestDelivery) {
				latestDelivery = outcome.DeliveryEstimate
			}
			result.TotalCharged = result.TotalCharged.Add(commit.Amount)
		}
		if outcome.Downgraded {
			log.Info("line downgraded at commit",
				zap.String("item", line.ItemName),
				zap.Int64("quoted_units", line.FulfillableUnits),
				zap.Int64("committed_units", commit.CommittedUnits))
		}
		result.Sales = append(result.Sales, outcome)
	}
	result.TotalCharged = result.TotalCharged.Round(0)

	// ResponseComposed: the composer gets the full breakdown; its failure
	// fails the run but committed sales stand.
	result.Stage = StageResponseComposed
	composeCtx, cancel := context.WithTimeout(ctx, p.timeouts.compose())
	defer cancel()
	response, err := p.composer.Compose(composeCtx, ComposeInput{
		RawText:          rawText,
		RequestDate:      asOf,
		Quote:            result.Quote,
		Sales:            result.Sales,
		DeliveryEstimate: latestDelivery,
		Precedents:       precedents,
	})
	if err != nil {
		log.Error("response composer failed", zap.Error(err))
		result.Stage = StageFailed
		return nil, ErrPipelineFailed
	}
	result.Response = response
	result.Stage = StageDone

	log.Info("request processed",
		zap.Bool("fulfilled", result.Fulfilled()),
		zap.String("total_charged", result.TotalCharged.String()))
	return result, nil
}

// priceSnapshot resolves the unit price per canonical requested item: the
// policy reference price when the item is managed, the catalog price
// otherwise. Unknown names are left out — the quote engine reports them.
func (p *Pipeline) priceSnapshot(ctx context.Context, lines []RequestLine) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		canonical, ok := p.engine.normalizer.Normalize(line.ItemName)
		if !ok {
			continue
		}
		if _, seen := prices[canonical]; seen {
			continue
		}
		policy, managed, err := p.store.Policy(ctx, canonical)
		if err != nil {
			return nil, err
		}
		if managed {
			prices[canonical] = policy.ReferenceUnitPrice
			continue
		}
		if it, found := p.engine.catalog.Lookup(canonical); found {
			prices[canonical] = it.UnitPrice
		}
	}
	return prices, nil
}

func searchTerms(q Quote) []string {
	var terms []string
	for _, line := range q.Lines {
		terms = append(terms, line.ItemName)
	}
	// A single broad term keeps recall useful: every term must match a
	// record, so only the first item is used when several were quoted.
	if len(terms) > 1 {
		terms = terms[:1]
	}
	return terms
}
