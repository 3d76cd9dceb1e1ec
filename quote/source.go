package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrFallbackExhausted wraps the last error of a source whose every relay failed.
var ErrFallbackExhausted = errors.New("all relays failed")

// Source is the policy of one upstream market-data provider: where its data
// lives, how to reach it, and how to read its records.
type Source struct {
	ID       string
	Label    string // shown to the user, prefixes error messages
	Endpoint string
	Relays   []Relay // tried in order until one answers

	// jsonpath expressions of the record fields.
	CodeField  string
	NameField  string
	PriceField string

	// RequireName only records a price when the record also has a name.
	RequireName bool
}

// Sources of the Taiwan exchanges end of day quotes.
var (
	TWSE = Source{
		ID:         "twse",
		Label:      "證交所",
		Endpoint:   "https://openapi.twse.com.tw/v1/exchangeReport/STOCK_DAY_ALL",
		Relays:     []Relay{CorsProxy},
		CodeField:  "$.Code",
		NameField:  "$.Name",
		PriceField: "$.ClosingPrice",
	}
	TPEx = Source{
		ID:          "tpex",
		Label:       "櫃買中心",
		Endpoint:    "https://www.tpex.org.tw/openapi/v1/tpex_mainboard_quotes",
		Relays:      []Relay{CorsProxy, AllOrigins},
		CodeField:   "$.SecuritiesCompanyCode",
		NameField:   "$.CompanyName",
		PriceField:  "$.Close",
		RequireName: true,
	}
)

// DefaultSources returns the sources queried by a sync.
func DefaultSources() []Source { return []Source{TWSE, TPEx} }

// Lookup returns the default source with the given ID.
func Lookup(id string) (Source, error) {
	for _, s := range DefaultSources() {
		if s.ID == id {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("unknown source %q", id)
}

// Quotes are the normalized records of a source.
type Quotes struct {
	Prices map[string]decimal.Decimal
	Names  map[string]string
}

// Fetch retrieves and parses the source records, walking the relay chain
// sequentially: a relay is only tried once the previous one failed.
func (s Source) Fetch(ctx context.Context, f *Fetcher, now time.Time) (Quotes, error) {
	if len(s.Relays) == 0 {
		return Quotes{}, fmt.Errorf("source %s has no relay", s.ID)
	}
	var lastErr error
	for i, r := range s.Relays {
		payload, err := f.Fetch(ctx, r.URL(s.Endpoint, now))
		if err == nil {
			payload, err = r.Unwrap(payload)
		}
		if err == nil {
			return s.Parse(payload)
		}
		if ctx.Err() != nil {
			return Quotes{}, ctx.Err()
		}
		lastErr = err
		if i < len(s.Relays)-1 {
			f.logger.WithFields(logrus.Fields{
				"source": s.ID,
				"relay":  r.Name,
				"next":   s.Relays[i+1].Name,
			}).Warnf("relay failed: %v, switching to the next relay", err)
		}
	}
	if len(s.Relays) > 1 {
		return Quotes{}, fmt.Errorf("%w: %w", ErrFallbackExhausted, lastErr)
	}
	return Quotes{}, lastErr
}

// Parse normalizes the records of a source payload.
func (s Source) Parse(payload any) (Quotes, error) {
	records, ok := payload.([]any)
	if !ok {
		return Quotes{}, fmt.Errorf("unexpected payload: expected an array of records, got %T", payload)
	}
	q := Quotes{
		Prices: make(map[string]decimal.Decimal),
		Names:  make(map[string]string),
	}
	for _, rec := range records {
		code := strings.TrimSpace(field(s.CodeField, rec))
		name := strings.TrimSpace(field(s.NameField, rec))
		if code == "" {
			continue
		}
		if name != "" {
			q.Names[code] = name
		} else if s.RequireName {
			continue
		}
		if price, ok := parsePrice(field(s.PriceField, rec)); ok {
			q.Prices[code] = price
		}
	}
	return q, nil
}

// field reads a record field as text, "" when absent.
func field(path string, rec any) string {
	v, err := jsonpath.Get(path, rec)
	if err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	}
	return ""
}

// parsePrice reads a quoted price like "1,105.00". Exchanges use "-" or an
// empty string when no trade happened; those, like any unreadable or non
// positive value, yield no price.
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	p, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || !p.IsPositive() {
		return decimal.Zero, false
	}
	return p, true
}
