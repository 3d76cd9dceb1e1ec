package kite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOpen_Empty(t *testing.T) {
	tr, err := Open(context.Background(), newMemStore())
	if err != nil {
		t.Fatalf("Open() unexpected error = %v", err)
	}
	p := tr.Portfolio()
	if len(p.Stocks) != 0 || len(p.Transactions) != 0 || len(p.History) != 0 {
		t.Errorf("Open() = %+v, want an empty portfolio", p)
	}
	if p.WindID != DefaultWind {
		t.Errorf("WindID = %d, want %d", p.WindID, DefaultWind)
	}
	if p.Names == nil {
		t.Error("Names is nil")
	}
}

func TestTracker_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tr, err := Open(ctx, store)
	if err != nil {
		t.Fatalf("Open() unexpected error = %v", err)
	}
	tr.now = func() time.Time { return time.Date(2025, 3, 14, 6, 30, 5, 0, time.UTC) }

	if err := tr.AddStock(NewStock("台積電", "2330", d("1000"), d("600"), Long)); err != nil {
		t.Fatalf("AddStock() unexpected error = %v", err)
	}
	tx, _ := NewTransaction(Deposit, d("1000000"), tr.now())
	tr.Record(tx)
	if err := tr.SetWind(1); err != nil {
		t.Fatalf("SetWind() unexpected error = %v", err)
	}
	status := NewSyncStatus()
	status.Prices["2330"] = d("1105")
	status.Names["2330"] = "台積電"
	tr.Apply(status)
	snap := tr.Settle()

	if !snap.MarketValue.Equal(d("1105000")) || !snap.TotalProfit.Equal(d("505000")) {
		t.Errorf("Settle() = %v / %v, want 1105000 / 505000", snap.MarketValue, snap.TotalProfit)
	}
	if snap.Wind.ID != 1 || snap.StockCount != 1 {
		t.Errorf("Settle() wind = %d count = %d, want 1 and 1", snap.Wind.ID, snap.StockCount)
	}

	if err := tr.Save(ctx); err != nil {
		t.Fatalf("Save() unexpected error = %v", err)
	}
	reopened, err := Open(ctx, store)
	if err != nil {
		t.Fatalf("Open() unexpected error = %v", err)
	}
	if diff := cmp.Diff(tr.Portfolio(), reopened.Portfolio()); diff != "" {
		t.Errorf("round trip mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestTracker_Apply(t *testing.T) {
	tr, _ := Open(context.Background(), newMemStore())
	tr.AddStock(Stock{Code: "2330", Shares: d("1"), Cost: d("600"), CurrentPrice: d("600")})
	tr.AddStock(Stock{Code: "6488", Shares: d("1"), Cost: d("400"), CurrentPrice: d("420")})
	names := NewSyncStatus()
	names.Names["1101"] = "台泥"
	tr.Apply(names)

	first := NewSyncStatus()
	first.Timestamp = "t1"
	first.Prices["2330"] = d("1105")
	first.Names["2330"] = "台積電"
	first.Errors = []string{"櫃買中心: request timed out after 30s"}
	tr.Apply(first)

	p := tr.Portfolio()
	if !p.Stocks[0].CurrentPrice.Equal(d("1105")) || !p.Stocks[1].CurrentPrice.Equal(d("420")) {
		t.Errorf("prices = %v, %v, want 1105, 420", p.Stocks[0].CurrentPrice, p.Stocks[1].CurrentPrice)
	}
	want := map[string]string{"2330": "台積電", "1101": "台泥"}
	if diff := cmp.Diff(want, p.Names); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
	label, errs := tr.LastSync()
	if label != "t1 (異常)" || len(errs) != 1 {
		t.Errorf("LastSync() = %q, %q", label, errs)
	}
}

func TestTracker_ConcurrentApply(t *testing.T) {
	tr, _ := Open(context.Background(), newMemStore())
	tr.AddStock(Stock{Code: "2330", Shares: d("1"), Cost: d("600"), CurrentPrice: d("600")})

	st := NewSyncStatus()
	st.Prices["2330"] = d("1105")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Apply(st)
			_ = tr.Portfolio().Totals()
		}()
	}
	wg.Wait()
	if got := tr.Portfolio().Stocks[0].CurrentPrice; !got.Equal(d("1105")) {
		t.Errorf("CurrentPrice = %v, want 1105", got)
	}
}

func TestTracker_EditRemove(t *testing.T) {
	tr, _ := Open(context.Background(), newMemStore())
	s := NewStock("台積電", "2330", d("1000"), d("600"), Long)
	tr.AddStock(s)
	tr.AddStock(NewStock("環球晶", "6488", d("10"), d("400"), Short))

	if err := tr.UpdateStock("2330", func(s *Stock) { s.Shares = d("2000") }); err != nil {
		t.Fatalf("UpdateStock() unexpected error = %v", err)
	}
	if err := tr.UpdateStock(s.ID, func(s *Stock) { s.Shares = d("0") }); err == nil {
		t.Error("UpdateStock() expected a validation error")
	}
	if got := tr.Portfolio().Stocks[0].Shares; !got.Equal(d("2000")) {
		t.Errorf("Shares = %v, want 2000", got)
	}
	if err := tr.UpdateStock("9999", func(*Stock) {}); err == nil {
		t.Error("UpdateStock() expected an error for an unknown stock")
	}

	removed, err := tr.RemoveStock(s.ID)
	if err != nil || removed.Code != "2330" {
		t.Fatalf("RemoveStock() = %v, %v", removed.Code, err)
	}
	if got := tr.Portfolio().Codes(); len(got) != 1 || got[0] != "6488" {
		t.Errorf("Codes() = %v, want [6488]", got)
	}
	if err := tr.SetWind(9); err == nil {
		t.Error("SetWind() expected an error for an unknown mood")
	}
	tr.Settle()
	tr.ClearHistory()
	if n := len(tr.Portfolio().History); n != 0 {
		t.Errorf("History has %d snapshots after ClearHistory()", n)
	}
}
