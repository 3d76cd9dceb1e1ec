package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/etnz/kite"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type mockPortfolio struct {
	p      kite.Portfolio
	label  string
	errors []string
}

func (m *mockPortfolio) Portfolio() kite.Portfolio    { return m.p }
func (m *mockPortfolio) LastSync() (string, []string) { return m.label, m.errors }

type mockRefresher struct {
	status kite.SyncStatus
	shared bool
	busy   bool
	calls  int
}

func (m *mockRefresher) Refresh(ctx context.Context) (kite.SyncStatus, bool) {
	m.calls++
	return m.status, m.shared
}

func (m *mockRefresher) Busy() bool { return m.busy }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testPortfolio() kite.Portfolio {
	tp := d("1100")
	tx, _ := kite.NewTransaction(kite.Deposit, d("250000"), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	return kite.Portfolio{
		Stocks: []kite.Stock{
			{ID: "a", Code: "2330", Shares: d("100"), Cost: d("1000"), CurrentPrice: d("1105"), Period: kite.Long, TakeProfit: &tp},
			{ID: "b", Code: "6488", Name: "環球晶", Shares: d("200"), Cost: d("500"), CurrentPrice: d("450"), Period: kite.Short},
		},
		Transactions: []kite.Transaction{tx},
		WindID:       1,
		Names:        map[string]string{"2330": "台積電"},
	}
}

func newTestServer(p *mockPortfolio, r Refresher) *httptest.Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return httptest.NewServer(NewServer(p, r, logger).Handler())
}

func getJSON(t *testing.T, method, url string, dst any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); dst != nil && ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			t.Fatalf("cannot decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(&mockPortfolio{label: "t (異常)", errors: []string{"證交所: boom"}}, &mockRefresher{busy: true})
	defer srv.Close()

	var got statusResponse
	if code := getJSON(t, http.MethodGet, srv.URL+"/api/status", &got); code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	want := statusResponse{LastSync: "t (異常)", Errors: []string{"證交所: boom"}, Syncing: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleHoldings(t *testing.T) {
	srv := newTestServer(&mockPortfolio{p: testPortfolio()}, nil)
	defer srv.Close()

	var got []holdingResponse
	if code := getJSON(t, http.MethodGet, srv.URL+"/api/holdings", &got); code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if len(got) != 2 {
		t.Fatalf("holdings = %d, want 2", len(got))
	}
	if got[0].Name != "台積電" || !got[0].HitTP || got[0].HitSL {
		t.Errorf("holdings[0] = %+v", got[0])
	}
	if !got[0].MarketValue.Equal(d("110500")) || !got[0].Return.Equal(d("10.5")) {
		t.Errorf("holdings[0] value = %v return = %v", got[0].MarketValue, got[0].Return)
	}
	if !got[1].Profit.Equal(d("-10000")) || got[1].TakeProfit != nil {
		t.Errorf("holdings[1] = %+v", got[1])
	}
}

func TestHandleHoldings_Empty(t *testing.T) {
	srv := newTestServer(&mockPortfolio{}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/holdings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("body = %s, want []", body)
	}
}

func TestHandleTotals(t *testing.T) {
	srv := newTestServer(&mockPortfolio{p: testPortfolio()}, nil)
	defer srv.Close()

	var got struct {
		MarketValue struct {
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"marketValue"`
		CashRatio decimal.Decimal `json:"cashRatio"`
		Wind      kite.WindMood   `json:"wind"`
	}
	if code := getJSON(t, http.MethodGet, srv.URL+"/api/totals", &got); code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if !got.MarketValue.Amount.Equal(d("200500")) || got.MarketValue.Currency != kite.TWD {
		t.Errorf("marketValue = %+v, want 200500 TWD", got.MarketValue)
	}
	if !got.CashRatio.Equal(d("20")) {
		t.Errorf("cashRatio = %v, want 20", got.CashRatio)
	}
	if got.Wind.ID != 1 {
		t.Errorf("wind = %+v, want 1", got.Wind)
	}
}

func TestHandleSync(t *testing.T) {
	status := kite.NewSyncStatus()
	status.Timestamp = "2025年03月14日 14:30:05 (UTC+8)"
	status.Prices["2330"] = d("1105")
	status.Errors = append(status.Errors, "櫃買中心: all relays failed")
	ref := &mockRefresher{status: status, shared: true}
	srv := newTestServer(&mockPortfolio{}, ref)
	defer srv.Close()

	var got struct {
		Prices map[string]decimal.Decimal `json:"prices"`
		Errors []string                   `json:"errors"`
		Label  string                     `json:"label"`
		Shared bool                       `json:"shared"`
	}
	if code := getJSON(t, http.MethodPost, srv.URL+"/api/sync", &got); code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", code)
	}
	if ref.calls != 1 {
		t.Errorf("Refresh() called %d times, want 1", ref.calls)
	}
	if got.Label != "2025年03月14日 14:30:05 (UTC+8) (異常)" || !got.Shared || len(got.Errors) != 1 {
		t.Errorf("sync = %+v", got)
	}
	if !got.Prices["2330"].Equal(d("1105")) {
		t.Errorf("prices = %v", got.Prices)
	}

	if code := getJSON(t, http.MethodGet, srv.URL+"/api/sync", nil); code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/sync = %d, want 405", code)
	}
}

func TestHandleSync_Unavailable(t *testing.T) {
	srv := newTestServer(&mockPortfolio{}, nil)
	defer srv.Close()

	var got apiError
	if code := getJSON(t, http.MethodPost, srv.URL+"/api/sync", &got); code != http.StatusServiceUnavailable {
		t.Errorf("status code = %d, want 503", code)
	}
	if got.Error == "" {
		t.Error("error message is empty")
	}
}
