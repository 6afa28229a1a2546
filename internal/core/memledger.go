package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemLedger is the in-memory LedgerStore. It backs isolated test instances
// and the no-database demo mode; semantics are identical to the Postgres
// implementation. One mutex guards everything — the per-item linearizability
// contract of AppendSaleCapped follows trivially.
type MemLedger struct {
	mu       sync.Mutex
	nextID   int64
	events   []LedgerEvent
	policies map[string]InventoryPolicy

	nextRequestID int64
	history       []QuoteRecord
}

var _ LedgerStore = (*MemLedger)(nil)

func NewMemLedger() *MemLedger {
	return &MemLedger{
		nextID:        1,
		nextRequestID: 1,
		policies:      make(map[string]InventoryPolicy),
	}
}

func (m *MemLedger) Append(_ context.Context, ev LedgerEvent) (int64, error) {
	if !ev.Kind.Valid() {
		return 0, fmt.Errorf("append rejected: %w (got %q)", ErrInvalidEventKind, ev.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(ev), nil
}

func (m *MemLedger) appendLocked(ev LedgerEvent) int64 {
	ev.ID = m.nextID
	ev.OccurredOn = DateOnly(ev.OccurredOn)
	m.nextID++
	m.events = append(m.events, ev)
	return ev.ID
}

func (m *MemLedger) stockLocked(itemName string, cutoff time.Time) int64 {
	cutoff = DateOnly(cutoff)
	var stock int64
	for _, ev := range m.events {
		if ev.ItemName == nil || *ev.ItemName != itemName || ev.OccurredOn.After(cutoff) {
			continue
		}
		if ev.Units == nil {
			continue
		}
		switch ev.Kind {
		case EventStockOrder:
			stock += *ev.Units
		case EventSale:
			stock -= *ev.Units
		}
	}
	return stock
}

func (m *MemLedger) StockAsOf(_ context.Context, itemName string, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stockLocked(itemName, cutoff), nil
}

func (m *MemLedger) CashAsOf(_ context.Context, cutoff time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff = DateOnly(cutoff)
	cash := decimal.Zero
	for _, ev := range m.events {
		if ev.OccurredOn.After(cutoff) {
			continue
		}
		switch ev.Kind {
		case EventSale:
			cash = cash.Add(ev.Amount)
		case EventStockOrder:
			cash = cash.Sub(ev.Amount)
		}
	}
	return cash, nil
}

func (m *MemLedger) AllPositiveStockAsOf(_ context.Context, cutoff time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff = DateOnly(cutoff)
	totals := make(map[string]int64)
	for _, ev := range m.events {
		if ev.ItemName == nil || ev.Units == nil || ev.OccurredOn.After(cutoff) {
			continue
		}
		switch ev.Kind {
		case EventStockOrder:
			totals[*ev.ItemName] += *ev.Units
		case EventSale:
			totals[*ev.ItemName] -= *ev.Units
		}
	}
	for name, stock := range totals {
		if stock <= 0 {
			delete(totals, name)
		}
	}
	return totals, nil
}

func (m *MemLedger) TopSellersAsOf(_ context.Context, cutoff time.Time, limit int) ([]Seller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff = DateOnly(cutoff)
	byItem := make(map[string]*Seller)
	for _, ev := range m.events {
		if ev.Kind != EventSale || ev.ItemName == nil || ev.OccurredOn.After(cutoff) {
			continue
		}
		s, ok := byItem[*ev.ItemName]
		if !ok {
			s = &Seller{ItemName: *ev.ItemName}
			byItem[*ev.ItemName] = s
		}
		if ev.Units != nil {
			s.TotalUnits += *ev.Units
		}
		s.TotalRevenue = s.TotalRevenue.Add(ev.Amount)
	}

	sellers := make([]Seller, 0, len(byItem))
	for _, s := range byItem {
		sellers = append(sellers, *s)
	}
	sort.Slice(sellers, func(i, j int) bool {
		if !sellers[i].TotalRevenue.Equal(sellers[j].TotalRevenue) {
			return sellers[i].TotalRevenue.GreaterThan(sellers[j].TotalRevenue)
		}
		return sellers[i].ItemName < sellers[j].ItemName
	})
	if limit > 0 && len(sellers) > limit {
		sellers = sellers[:limit]
	}
	return sellers, nil
}

func (m *MemLedger) SearchQuoteHistory(_ context.Context, terms []string, limit int) ([]QuoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []QuoteRecord
	for _, rec := range m.history {
		request := strings.ToLower(rec.Request)
		explanation := strings.ToLower(rec.Explanation)
		all := true
		for _, term := range terms {
			t := strings.ToLower(strings.TrimSpace(term))
			if !strings.Contains(request, t) && !strings.Contains(explanation, t) {
				all = false
				break
			}
		}
		if all {
			matches = append(matches, rec)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].OrderDate.Equal(matches[j].OrderDate) {
			return matches[i].OrderDate.After(matches[j].OrderDate)
		}
		return matches[i].RequestID < matches[j].RequestID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *MemLedger) AppendSaleCapped(_ context.Context, itemName string, units int64, unitAmount decimal.Decimal, saleDate time.Time) (SaleCommit, error) {
	if units <= 0 {
		return SaleCommit{}, fmt.Errorf("sale units must be positive, got %d", units)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stock := m.stockLocked(itemName, saleDate)
	committed := units
	if stock < committed {
		committed = stock
	}
	if committed <= 0 {
		return SaleCommit{CommittedUnits: 0, Amount: decimal.Zero}, nil
	}

	amount := unitAmount.Mul(decimal.NewFromInt(committed))
	name := itemName
	u := committed
	id := m.appendLocked(LedgerEvent{
		ItemName:   &name,
		Kind:       EventSale,
		Units:      &u,
		Amount:     amount,
		OccurredOn: saleDate,
	})
	return SaleCommit{EventID: id, CommittedUnits: committed, Amount: amount}, nil
}

func (m *MemLedger) Policy(_ context.Context, itemName string) (InventoryPolicy, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.policies[itemName]
	return p, ok, nil
}

func (m *MemLedger) Policies(_ context.Context) ([]InventoryPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]InventoryPolicy, 0, len(m.policies))
	for _, p := range m.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (m *MemLedger) ReplacePolicies(_ context.Context, rows []InventoryPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.policies = make(map[string]InventoryPolicy, len(rows))
	for _, p := range rows {
		m.policies[p.ItemName] = p
	}
	return nil
}

func (m *MemLedger) RecordQuoteHistory(_ context.Context, rec QuoteRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.RequestID = m.nextRequestID
	rec.OrderDate = DateOnly(rec.OrderDate)
	m.nextRequestID++
	m.history = append(m.history, rec)
	return rec.RequestID, nil
}
