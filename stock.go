package kite

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period is the intended holding horizon of a position.
type Period string

const (
	Short Period = "短線"
	Mid   Period = "中期"
	Long  Period = "長期"
)

// ParsePeriod accepts either the display name or its english alias.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", string(Short):
		return Short, nil
	case "mid", "medium", "", string(Mid):
		return Mid, nil
	case "long", string(Long):
		return Long, nil
	}
	return "", fmt.Errorf("invalid period %q: expected short, mid or long", s)
}

// Stock is a position held in the portfolio, identified by its exchange code.
type Stock struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	Shares       decimal.Decimal  `json:"shares"`
	Cost         decimal.Decimal  `json:"cost"`
	CurrentPrice decimal.Decimal  `json:"currentPrice"`
	Period       Period           `json:"period"`
	TakeProfit   *decimal.Decimal `json:"takeProfit"`
	StopLoss     *decimal.Decimal `json:"stopLoss"`
}

// NewStock creates a position with a fresh ID. The current price starts at
// the cost until the next sync.
func NewStock(name, code string, shares, cost decimal.Decimal, period Period) Stock {
	return Stock{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Code:         strings.TrimSpace(code),
		Shares:       shares,
		Cost:         cost,
		CurrentPrice: cost,
		Period:       period,
	}
}

// Validate checks the position can take part in totals.
func (s Stock) Validate() error {
	if strings.TrimSpace(s.Code) == "" {
		return fmt.Errorf("stock %q has no code", s.Name)
	}
	if !s.Shares.IsPositive() {
		return fmt.Errorf("stock %s: shares must be positive, got %v", s.Code, s.Shares)
	}
	if s.Cost.IsNegative() {
		return fmt.Errorf("stock %s: cost cannot be negative, got %v", s.Code, s.Cost)
	}
	return nil
}

// InvestedCapital is shares times cost.
func (s Stock) InvestedCapital() decimal.Decimal { return s.Shares.Mul(s.Cost) }

// MarketValue is shares times the current price.
func (s Stock) MarketValue() decimal.Decimal { return s.Shares.Mul(s.CurrentPrice) }

// Profit is the unrealized gain of the position.
func (s Stock) Profit() decimal.Decimal { return s.MarketValue().Sub(s.InvestedCapital()) }

// Return is the unrealized gain in percent of the cost, 0 when the cost is 0.
func (s Stock) Return() decimal.Decimal {
	if s.Cost.IsZero() {
		return decimal.Zero
	}
	return s.CurrentPrice.Sub(s.Cost).Div(s.Cost).Mul(decimal.NewFromInt(100))
}

// HitTakeProfit reports whether the current price reached the take-profit level.
func (s Stock) HitTakeProfit() bool {
	return s.TakeProfit != nil && s.TakeProfit.IsPositive() && s.CurrentPrice.GreaterThanOrEqual(*s.TakeProfit)
}

// HitStopLoss reports whether the current price fell to the stop-loss level.
func (s Stock) HitStopLoss() bool {
	return s.StopLoss != nil && s.StopLoss.IsPositive() && s.CurrentPrice.LessThanOrEqual(*s.StopLoss)
}

// DisplayName prefers the stock's own name, then the cached exchange name.
func (s Stock) DisplayName(names map[string]string) string {
	if s.Name != "" {
		return s.Name
	}
	if n, ok := names[strings.TrimSpace(s.Code)]; ok {
		return n
	}
	return s.Code
}
