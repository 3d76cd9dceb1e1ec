package kite

import "github.com/shopspring/decimal"

// WindMood is the user's reading of the market, recorded with each snapshot.
type WindMood struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// DefaultWind is the mood used until the user picks one.
const DefaultWind = 4

// WindMoods lists the available moods, by ID.
var WindMoods = []WindMood{
	{ID: 1, Name: "強風 (風箏飛高高)", Icon: "Tornado", Color: "text-red-400"},
	{ID: 2, Name: "亂流 (注意風箏高度)", Icon: "Wind", Color: "text-yellow-400"},
	{ID: 3, Name: "陣風 (注意風險機會)", Icon: "CloudLightning", Color: "text-blue-400"},
	{ID: 4, Name: "無風 (找價值好股)", Icon: "Snowflake", Color: "text-emerald-400"},
}

// Wind returns the mood with the given ID, or the default one.
func Wind(id int) WindMood {
	for _, w := range WindMoods {
		if w.ID == id {
			return w
		}
	}
	return WindMoods[DefaultWind-1]
}

// IsWind reports whether id names a known mood.
func IsWind(id int) bool {
	for _, w := range WindMoods {
		if w.ID == id {
			return true
		}
	}
	return false
}

// Snapshot is a settlement of the portfolio value at some point in time.
type Snapshot struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	MarketValue decimal.Decimal `json:"marketValue"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	Wind        WindMood        `json:"wind"`
	StockCount  int             `json:"stockCount"`
}
