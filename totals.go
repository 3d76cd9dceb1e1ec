package kite

import "github.com/shopspring/decimal"

// Totals are the portfolio wide figures shown on the dashboard.
type Totals struct {
	TotalBudget     Money `json:"totalBudget"`
	InvestedCapital Money `json:"investedCapital"`
	MarketValue     Money `json:"marketValue"`
	AvailableCash   Money `json:"availableCash"`
	TotalProfit     Money `json:"totalProfit"`
}

// ComputeTotals derives the totals from holdings and cash movements.
func ComputeTotals(stocks []Stock, txs []Transaction) Totals {
	budget := decimal.Zero
	for _, tx := range txs {
		budget = budget.Add(tx.Signed())
	}
	invested, market := decimal.Zero, decimal.Zero
	for _, s := range stocks {
		invested = invested.Add(s.InvestedCapital())
		market = market.Add(s.MarketValue())
	}
	return Totals{
		TotalBudget:     NT(budget),
		InvestedCapital: NT(invested),
		MarketValue:     NT(market),
		AvailableCash:   NT(budget.Sub(invested)),
		TotalProfit:     NT(market.Sub(invested)),
	}
}

// CashRatio is the available cash in percent of the budget, 0 without budget.
func (t Totals) CashRatio() decimal.Decimal {
	if t.TotalBudget.IsZero() {
		return decimal.Zero
	}
	return t.AvailableCash.Value().Div(t.TotalBudget.Value()).Mul(decimal.NewFromInt(100))
}
