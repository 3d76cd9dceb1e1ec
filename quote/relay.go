package quote

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// ErrEmptyContents is returned when a wrapping relay carries no payload.
var ErrEmptyContents = errors.New("relay returned empty contents")

// Relay is a CORS relay the upstream endpoints are reached through.
//
// A plain relay returns the upstream body as is. A wrapping relay returns an
// object whose "contents" field holds the upstream body, either decoded or as
// a JSON string.
type Relay struct {
	Name    string
	Base    string // the target URL is query escaped and appended
	Wrapped bool
}

// Relays known to work with the exchanges open data.
var (
	CorsProxy  = Relay{Name: "corsproxy.io", Base: "https://corsproxy.io/?"}
	AllOrigins = Relay{Name: "allorigins", Base: "https://api.allorigins.win/get?url=", Wrapped: true}
)

// URL returns the relayed address of target. Wrapping relays cache their
// answers, so a timestamp is added to always reach the upstream.
func (r Relay) URL(target string, now time.Time) string {
	addr := r.Base + url.QueryEscape(target)
	if r.Wrapped {
		addr += "&_=" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	return addr
}

// Unwrap extracts the upstream payload from a relay response.
func (r Relay) Unwrap(payload any) (any, error) {
	if !r.Wrapped {
		return payload, nil
	}
	contents, err := jsonpath.Get("$.contents", payload)
	if err != nil || contents == nil {
		return nil, fmt.Errorf("%s: %w", r.Name, ErrEmptyContents)
	}
	s, ok := contents.(string)
	if !ok {
		return contents, nil
	}
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%s: %w", r.Name, ErrEmptyContents)
	}
	if isHTML([]byte(s)) {
		return nil, &FetchError{Kind: Disguised, Err: errors.New("html contents")}
	}
	v, err := decodeJSON([]byte(s))
	if err != nil {
		return nil, &FetchError{Kind: Malformed, Err: err}
	}
	return v, nil
}
