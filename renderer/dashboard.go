package renderer

import (
	"github.com/etnz/kite"
	"github.com/shopspring/decimal"
)

// Dashboard is the view of a portfolio the reports are rendered from.
type Dashboard struct {
	Totals     kite.Totals
	CashRatio  decimal.Decimal
	Wind       kite.WindMood
	LastSync   string
	SyncErrors []string
	Holdings   []Holding
	History    []kite.Snapshot
}

// Holding is one row of the holdings table.
type Holding struct {
	Name   string
	Code   string
	Period kite.Period
	Shares decimal.Decimal
	Cost   decimal.Decimal
	Price  decimal.Decimal
	Value  kite.Money
	Profit kite.Money
	Return decimal.Decimal // in percent
	Alert  string
}

// NewDashboard builds the view of p. lastSync and errs describe the last
// applied sync, if any.
func NewDashboard(p kite.Portfolio, lastSync string, errs []string) *Dashboard {
	totals := p.Totals()
	d := &Dashboard{
		Totals:     totals,
		CashRatio:  totals.CashRatio(),
		Wind:       p.Wind(),
		LastSync:   lastSync,
		SyncErrors: errs,
		History:    p.History,
	}
	for _, s := range p.Stocks {
		d.Holdings = append(d.Holdings, Holding{
			Name:   s.DisplayName(p.Names),
			Code:   s.Code,
			Period: s.Period,
			Shares: s.Shares,
			Cost:   s.Cost,
			Price:  s.CurrentPrice,
			Value:  kite.NT(s.MarketValue()),
			Profit: kite.NT(s.Profit()),
			Return: s.Return(),
			Alert:  alert(s),
		})
	}
	return d
}

func alert(s kite.Stock) string {
	switch {
	case s.HitTakeProfit():
		return "🎯 停利"
	case s.HitStopLoss():
		return "🛑 停損"
	}
	return ""
}
