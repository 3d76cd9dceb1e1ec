package kite

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is either a deposit or a withdrawal of cash.
type TransactionType string

const (
	Deposit  TransactionType = "deposit"
	Withdraw TransactionType = "withdraw"
)

// Transaction is a cash movement in or out of the portfolio.
type Transaction struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	Type   TransactionType `json:"type"`
	Date   string          `json:"date"`
}

// NewTransaction creates a cash movement dated now.
func NewTransaction(typ TransactionType, amount decimal.Decimal, now time.Time) (Transaction, error) {
	if typ != Deposit && typ != Withdraw {
		return Transaction{}, fmt.Errorf("invalid transaction type %q", typ)
	}
	if !amount.IsPositive() {
		return Transaction{}, fmt.Errorf("invalid %s amount %v: must be positive", typ, amount)
	}
	return Transaction{
		ID:     uuid.NewString(),
		Amount: amount,
		Type:   typ,
		Date:   FormatTW(now),
	}, nil
}

// Signed returns the amount, negative for withdrawals.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Withdraw {
		return t.Amount.Neg()
	}
	return t.Amount
}
