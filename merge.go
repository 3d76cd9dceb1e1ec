package kite

import (
	"maps"
	"slices"
	"strings"
)

// ApplySync returns a copy of stocks where each current price is replaced by
// the synced price of its code. Stocks without a synced price keep theirs.
// Applying the same status twice yields the same holdings.
func ApplySync(stocks []Stock, status SyncStatus) []Stock {
	updated := make([]Stock, len(stocks))
	for i, s := range stocks {
		if p, ok := status.Prices[strings.TrimSpace(s.Code)]; ok && p.IsPositive() {
			s.CurrentPrice = p
		}
		updated[i] = s
	}
	return updated
}

// MergeNames adds names to the cache. Known codes are refreshed, but no code
// is ever dropped since a single sync rarely covers all of them.
func MergeNames(cache, names map[string]string) map[string]string {
	merged := make(map[string]string, len(cache)+len(names))
	maps.Copy(merged, cache)
	for code, name := range names {
		if name != "" {
			merged[code] = name
		}
	}
	return merged
}

// Unquoted returns the held codes the status carries no usable price for, in
// holding order.
func (p Portfolio) Unquoted(status SyncStatus) []string {
	return slices.DeleteFunc(p.Codes(), func(code string) bool {
		price, ok := status.Prices[code]
		return ok && price.IsPositive()
	})
}
