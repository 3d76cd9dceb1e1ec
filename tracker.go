package kite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Portfolio is the full user state: holdings, cash, history, mood and the
// cache of exchange names.
type Portfolio struct {
	Stocks       []Stock           `json:"stocks"`
	Transactions []Transaction     `json:"transactions"`
	History      []Snapshot        `json:"history"`
	WindID       int               `json:"wind"`
	Names        map[string]string `json:"names"`
}

// Totals computes the portfolio totals.
func (p Portfolio) Totals() Totals { return ComputeTotals(p.Stocks, p.Transactions) }

// Wind returns the current market mood.
func (p Portfolio) Wind() WindMood { return Wind(p.WindID) }

// Codes returns the distinct codes held, in holding order.
func (p Portfolio) Codes() []string {
	codes := make([]string, 0, len(p.Stocks))
	for _, s := range p.Stocks {
		c := strings.TrimSpace(s.Code)
		if c != "" && !slices.Contains(codes, c) {
			codes = append(codes, c)
		}
	}
	return codes
}

func (p Portfolio) clone() Portfolio {
	return Portfolio{
		Stocks:       slices.Clone(p.Stocks),
		Transactions: slices.Clone(p.Transactions),
		History:      slices.Clone(p.History),
		WindID:       p.WindID,
		Names:        maps.Clone(p.Names),
	}
}

// Tracker binds a Portfolio to a Store. All methods are safe for concurrent
// use; a sync result is merged while holding exclusive access.
type Tracker struct {
	mu    sync.Mutex
	store Store
	p     Portfolio
	now   func() time.Time

	lastSync   string
	syncErrors []string
}

// Open loads the tracker state from store. Missing keys start empty.
func Open(ctx context.Context, store Store) (*Tracker, error) {
	t := &Tracker{
		store: store,
		p:     Portfolio{WindID: DefaultWind, Names: make(map[string]string)},
		now:   time.Now,
	}
	fields := []struct {
		key string
		v   any
	}{
		{KeyStocks, &t.p.Stocks},
		{KeyTransactions, &t.p.Transactions},
		{KeyHistory, &t.p.History},
		{KeyWind, &t.p.WindID},
		{KeyNames, &t.p.Names},
	}
	for _, f := range fields {
		data, err := store.Get(ctx, f.key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cannot read %q: %w", f.key, err)
		}
		if err := json.Unmarshal(data, f.v); err != nil {
			return nil, fmt.Errorf("format error in %q: %w", f.key, err)
		}
	}
	if t.p.Names == nil {
		t.p.Names = make(map[string]string)
	}
	if !IsWind(t.p.WindID) {
		t.p.WindID = DefaultWind
	}
	return t, nil
}

// Save writes the whole state back to the store.
func (t *Tracker) Save(ctx context.Context) error {
	p := t.Portfolio()
	fields := []struct {
		key string
		v   any
	}{
		{KeyStocks, nonNil(p.Stocks)},
		{KeyTransactions, nonNil(p.Transactions)},
		{KeyHistory, nonNil(p.History)},
		{KeyWind, p.WindID},
		{KeyNames, p.Names},
	}
	for _, f := range fields {
		data, err := json.Marshal(f.v)
		if err != nil {
			return fmt.Errorf("cannot encode %q: %w", f.key, err)
		}
		if err := t.store.Set(ctx, f.key, data); err != nil {
			return fmt.Errorf("cannot write %q: %w", f.key, err)
		}
	}
	return nil
}

// nonNil makes empty lists persist as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Portfolio returns a copy of the current state.
func (t *Tracker) Portfolio() Portfolio {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.p.clone()
}

// Apply merges a sync result into holdings and the name cache.
func (t *Tracker) Apply(status SyncStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(status.Prices) > 0 {
		t.p.Stocks = ApplySync(t.p.Stocks, status)
	}
	if len(status.Names) > 0 {
		t.p.Names = MergeNames(t.p.Names, status.Names)
	}
	t.lastSync = status.Label()
	t.syncErrors = slices.Clone(status.Errors)
}

// LastSync returns the label and errors of the last applied sync.
func (t *Tracker) LastSync() (label string, errs []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastSync, slices.Clone(t.syncErrors)
}

// AddStock appends a new position.
func (t *Tracker) AddStock(s Stock) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Code = strings.TrimSpace(s.Code)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.Stocks = append(t.p.Stocks, s)
	return nil
}

// find returns the index of the stock with the given ID, or the first one with
// the given code.
func (t *Tracker) find(ref string) int {
	ref = strings.TrimSpace(ref)
	if i := slices.IndexFunc(t.p.Stocks, func(s Stock) bool { return s.ID == ref }); i >= 0 {
		return i
	}
	return slices.IndexFunc(t.p.Stocks, func(s Stock) bool { return s.Code == ref })
}

// UpdateStock edits the stock referenced by ID or code in place.
func (t *Tracker) UpdateStock(ref string, edit func(*Stock)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.find(ref)
	if i < 0 {
		return fmt.Errorf("no stock %q in portfolio", ref)
	}
	s := t.p.Stocks[i]
	edit(&s)
	s.Code = strings.TrimSpace(s.Code)
	if err := s.Validate(); err != nil {
		return err
	}
	t.p.Stocks[i] = s
	return nil
}

// RemoveStock deletes the stock referenced by ID or code.
func (t *Tracker) RemoveStock(ref string) (Stock, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.find(ref)
	if i < 0 {
		return Stock{}, fmt.Errorf("no stock %q in portfolio", ref)
	}
	s := t.p.Stocks[i]
	t.p.Stocks = slices.Delete(t.p.Stocks, i, i+1)
	return s, nil
}

// Record prepends a cash movement, newest first.
func (t *Tracker) Record(tx Transaction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.Transactions = append([]Transaction{tx}, t.p.Transactions...)
}

// SetWind changes the current market mood.
func (t *Tracker) SetWind(id int) error {
	if !IsWind(id) {
		return fmt.Errorf("unknown wind mood %d", id)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.WindID = id
	return nil
}

// Settle records a snapshot of the current value at the top of the history.
func (t *Tracker) Settle() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	totals := t.p.Totals()
	snap := Snapshot{
		ID:          uuid.NewString(),
		Date:        FormatTW(t.now()),
		MarketValue: totals.MarketValue.Value(),
		TotalProfit: totals.TotalProfit.Value(),
		Wind:        t.p.Wind(),
		StockCount:  len(t.p.Stocks),
	}
	t.p.History = append([]Snapshot{snap}, t.p.History...)
	return snap
}

// ClearHistory drops every snapshot.
func (t *Tracker) ClearHistory() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p.History = nil
}
