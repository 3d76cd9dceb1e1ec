package cmd

import (
	"flag"
	"strings"

	"github.com/etnz/kite"
	"github.com/shopspring/decimal"
)

// decimalFlag is a flag.Value accepting amounts like "1,105.5".
type decimalFlag struct {
	value decimal.Decimal
	set   bool
}

func (d *decimalFlag) String() string {
	if d == nil || !d.set {
		return ""
	}
	return d.value.String()
}

func (d *decimalFlag) Set(s string) error {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return err
	}
	d.value, d.set = v, true
	return nil
}

// stockFlags are the fields of a position, shared by add and edit.
type stockFlags struct {
	name   string
	code   string
	period string
	shares decimalFlag
	cost   decimalFlag
	price  decimalFlag
	tp     decimalFlag
	sl     decimalFlag
}

func (s *stockFlags) register(f *flag.FlagSet) {
	*s = stockFlags{}
	f.StringVar(&s.code, "code", "", "Exchange code of the stock, e.g. 2330")
	f.StringVar(&s.name, "name", "", "Display name, defaults to the name published by the exchange")
	f.StringVar(&s.period, "p", string(kite.Long), "Holding period: short, mid or long")
	f.Var(&s.shares, "shares", "Number of shares held")
	f.Var(&s.cost, "cost", "Average cost per share")
	f.Var(&s.price, "price", "Current price, until the next sync")
	f.Var(&s.tp, "tp", "Take profit price, 0 to clear")
	f.Var(&s.sl, "sl", "Stop loss price, 0 to clear")
}

// apply copies the flags that were set on the command line into st.
func (s *stockFlags) apply(f *flag.FlagSet, st *kite.Stock) error {
	var err error
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "code":
			st.Code = strings.TrimSpace(s.code)
		case "name":
			st.Name = strings.TrimSpace(s.name)
		case "p":
			if p, perr := kite.ParsePeriod(s.period); perr != nil {
				err = perr
			} else {
				st.Period = p
			}
		case "shares":
			st.Shares = s.shares.value
		case "cost":
			st.Cost = s.cost.value
		case "price":
			st.CurrentPrice = s.price.value
		case "tp":
			st.TakeProfit = optional(s.tp.value)
		case "sl":
			st.StopLoss = optional(s.sl.value)
		}
	})
	return err
}

// optional returns nil for a non positive threshold.
func optional(d decimal.Decimal) *decimal.Decimal {
	if !d.IsPositive() {
		return nil
	}
	return &d
}
