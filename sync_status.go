package kite

import "github.com/shopspring/decimal"

// SyncStatus is the merged outcome of one price synchronization.
//
// A code missing from Prices means no update is available, never a zero
// price. Names and Prices may cover different codes. Errors holds one labeled
// message per failed source; it is empty when every source succeeded.
type SyncStatus struct {
	Timestamp string                     `json:"timestamp"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	Names     map[string]string          `json:"names"`
	Errors    []string                   `json:"errors"`
}

// NewSyncStatus returns an empty, well-formed status.
func NewSyncStatus() SyncStatus {
	return SyncStatus{
		Prices: make(map[string]decimal.Decimal),
		Names:  make(map[string]string),
		Errors: []string{},
	}
}

// OK reports whether every source succeeded.
func (s SyncStatus) OK() bool { return len(s.Errors) == 0 }

// Label is the one line status shown next to the last sync time.
func (s SyncStatus) Label() string {
	if s.OK() {
		return s.Timestamp + " (成功)"
	}
	return s.Timestamp + " (異常)"
}
