package kite

import (
	"context"
	"errors"
)

// ErrNotFound is returned by a Store for a key that was never set.
var ErrNotFound = errors.New("key not found")

// Store is the key-value persistence the tracker saves its state in.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Keys under which the portfolio is persisted.
const (
	KeyStocks       = "portfolio_v3_stocks"
	KeyTransactions = "portfolio_v3_trans"
	KeyHistory      = "portfolio_v3_history"
	KeyWind         = "portfolio_v3_wind"
	KeyNames        = "cached_stock_names"
)
