package quote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func Test_parsePrice(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		found bool
	}{
		{"1,234.5", "1234.5", true},
		{"1,105.00", "1105", true},
		{" 58.3 ", "58.3", true},
		{"-", "", false},
		{"", "", false},
		{"abc", "", false},
		{"--", "", false},
		{"0.00", "", false},
		{"-12", "", false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		if ok != tt.found {
			t.Errorf("parsePrice(%q) found = %v, want %v", tt.in, ok, tt.found)
			continue
		}
		if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("parsePrice(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// quotes is a helper to build expected quotes.
func quotes(prices map[string]string, names map[string]string) Quotes {
	q := Quotes{Prices: make(map[string]decimal.Decimal), Names: make(map[string]string)}
	for k, v := range prices {
		q.Prices[k] = decimal.RequireFromString(v)
	}
	for k, v := range names {
		q.Names[k] = v
	}
	return q
}

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := decodeJSON([]byte(s))
	if err != nil {
		t.Fatalf("decodeJSON(%q) unexpected error = %v", s, err)
	}
	return v
}

func TestSource_Parse(t *testing.T) {
	tests := []struct {
		name    string
		source  Source
		payload string
		want    Quotes
	}{
		{
			name:   "twse",
			source: TWSE,
			payload: `[
				{"Code":" 2330 ","Name":" 台積電 ","ClosingPrice":"1,105.00"},
				{"Code":"0050","Name":"元大台灣50","ClosingPrice":"-"},
				{"Code":"9999","Name":"","ClosingPrice":"12.5"},
				{"Code":"","Name":"nobody","ClosingPrice":"1"},
				{"Code":"1101","Name":"台泥","ClosingPrice":"abc"}
			]`,
			want: quotes(
				map[string]string{"2330": "1105", "9999": "12.5"},
				map[string]string{"2330": "台積電", "0050": "元大台灣50", "1101": "台泥"},
			),
		},
		{
			name:   "tpex requires a name",
			source: TPEx,
			payload: `[
				{"SecuritiesCompanyCode":"6488","CompanyName":"環球晶","Close":"450.50"},
				{"SecuritiesCompanyCode":"5347","CompanyName":"","Close":"12.5"},
				{"SecuritiesCompanyCode":"3105","CompanyName":"穩懋","Close":""}
			]`,
			want: quotes(
				map[string]string{"6488": "450.5"},
				map[string]string{"6488": "環球晶", "3105": "穩懋"},
			),
		},
		{
			name:    "numbers and missing fields",
			source:  TPEx,
			payload: `[{"SecuritiesCompanyCode":"8069","CompanyName":"元太","Close":211.5},{"Other":1}]`,
			want:    quotes(map[string]string{"8069": "211.5"}, map[string]string{"8069": "元太"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.source.Parse(decode(t, tt.payload))
			if err != nil {
				t.Fatalf("Parse() unexpected error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSource_ParseNotAnArray(t *testing.T) {
	if _, err := TWSE.Parse(decode(t, `{"stat":"error"}`)); err == nil {
		t.Error("Parse() expected an error for a non array payload")
	}
}

func TestLookup(t *testing.T) {
	if s, err := Lookup("tpex"); err != nil || s.Label != "櫃買中心" {
		t.Errorf("Lookup(tpex) = %v, %v", s.Label, err)
	}
	if _, err := Lookup("nyse"); err == nil {
		t.Error("Lookup(nyse) expected an error")
	}
}

func TestRelay_URL(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	got := CorsProxy.URL(TWSE.Endpoint, now)
	want := "https://corsproxy.io/?https%3A%2F%2Fopenapi.twse.com.tw%2Fv1%2FexchangeReport%2FSTOCK_DAY_ALL"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
	got = AllOrigins.URL(TPEx.Endpoint, now)
	want = "https://api.allorigins.win/get?url=https%3A%2F%2Fwww.tpex.org.tw%2Fopenapi%2Fv1%2Ftpex_mainboard_quotes&_=1700000000000"
	if got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestRelay_Unwrap(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    any
		wantErr error
	}{
		{"string contents", `{"contents":"[{\"Code\":\"1\"}]"}`, []any{map[string]any{"Code": "1"}}, nil},
		{"decoded contents", `{"contents":[{"Code":"1"}]}`, []any{map[string]any{"Code": "1"}}, nil},
		{"null contents", `{"contents":null}`, nil, ErrEmptyContents},
		{"empty contents", `{"contents":""}`, nil, ErrEmptyContents},
		{"no contents", `{"status":{"http_code":500}}`, nil, ErrEmptyContents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllOrigins.Unwrap(decode(t, tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Unwrap() error = %v, want %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Unwrap() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := AllOrigins.Unwrap(decode(t, `{"contents":"<html>down</html>"}`)); err == nil {
		t.Error("Unwrap() expected an error for html contents")
	}
}

// relayServer serves a plain relay under /primary and a wrapping one under
// /backup, with the given handlers.
func relayServer(primary, backup http.HandlerFunc) (*httptest.Server, []Relay) {
	mux := http.NewServeMux()
	mux.HandleFunc("/primary", primary)
	mux.HandleFunc("/backup", backup)
	srv := httptest.NewServer(mux)
	return srv, []Relay{
		{Name: "primary", Base: srv.URL + "/primary?u="},
		{Name: "backup", Base: srv.URL + "/backup?url=", Wrapped: true},
	}
}

func TestSource_FetchFallback(t *testing.T) {
	var backupHits atomic.Int32
	srv, relays := relayServer(
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		func(w http.ResponseWriter, r *http.Request) {
			backupHits.Add(1)
			if r.URL.Query().Get("url") != TPEx.Endpoint {
				t.Errorf("backup relay got url = %q, want %q", r.URL.Query().Get("url"), TPEx.Endpoint)
			}
			io.WriteString(w, `{"contents":"[{\"SecuritiesCompanyCode\":\"6488\",\"CompanyName\":\"環球晶\",\"Close\":\"450.50\"}]"}`)
		},
	)
	defer srv.Close()

	src := TPEx
	src.Relays = relays
	got, err := src.Fetch(context.Background(), newTestFetcher(nil), time.Now())
	if err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}
	want := quotes(map[string]string{"6488": "450.5"}, map[string]string{"6488": "環球晶"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
	if backupHits.Load() != 1 {
		t.Errorf("backup hits = %d, want 1", backupHits.Load())
	}
}

func TestSource_FetchPrimaryFirst(t *testing.T) {
	srv, relays := relayServer(
		func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `[{"SecuritiesCompanyCode":"6488","CompanyName":"環球晶","Close":"450.50"}]`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Error("backup relay must not be called when the primary answers")
		},
	)
	defer srv.Close()

	src := TPEx
	src.Relays = relays
	if _, err := src.Fetch(context.Background(), newTestFetcher(nil), time.Now()); err != nil {
		t.Fatalf("Fetch() unexpected error = %v", err)
	}
}

func TestSource_FetchFallbackExhausted(t *testing.T) {
	srv, relays := relayServer(
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
		func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, `{"contents":null}`) },
	)
	defer srv.Close()

	src := TPEx
	src.Relays = relays
	_, err := src.Fetch(context.Background(), newTestFetcher(nil), time.Now())
	if !errors.Is(err, ErrFallbackExhausted) {
		t.Errorf("Fetch() error = %v, want %v", err, ErrFallbackExhausted)
	}
	if !errors.Is(err, ErrEmptyContents) {
		t.Errorf("Fetch() error = %v, want %v", err, ErrEmptyContents)
	}
}
