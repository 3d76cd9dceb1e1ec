// Package kite provides the types and functions to track a personal Taiwan
// equity portfolio: holdings, cash movements and settlement history, kept in a
// simple key-value store and refreshed from public market data.
//
// The core functionalities include:
//   - Holdings: positions with cost, current price, holding period and optional
//     take-profit and stop-loss levels.
//   - Cash: deposits and withdrawals that make up the total budget.
//   - Totals: budget, invested capital, market value, available cash and
//     unrealized profit derived from holdings and cash.
//   - Price synchronization: a SyncStatus produced by package quote is merged
//     into holdings without ever discarding a known price.
//   - Persistence: a Tracker binds the portfolio to a Store under stable keys.
//
// This package serves as the foundational logic for the `kite` command-line
// tool and its HTTP API.
package kite
