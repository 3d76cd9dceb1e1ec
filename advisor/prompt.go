package advisor

import (
	"fmt"
	"strings"

	"github.com/etnz/kite"
)

// Prompt renders the question sent to the model: market mood, totals, cash
// ratio and every holding.
func Prompt(p kite.Portfolio) string {
	totals := p.Totals()

	var holdings strings.Builder
	for i, s := range p.Stocks {
		if i > 0 {
			holdings.WriteByte('\n')
		}
		fmt.Fprintf(&holdings, "- %s(%s): 週期 %s, 成本 %s, 現價 %s",
			s.DisplayName(p.Names), s.Code, s.Period, s.Cost, s.CurrentPrice)
	}

	profit := totals.TotalProfit.Value().String()
	if !totals.TotalProfit.IsNegative() {
		profit = "+" + profit
	}

	return fmt.Sprintf(`你是一位專精於台灣股市的投資戰略顧問，語氣冷靜、專業且具備批判性思維。

【當前市場環境 (風度)】：%s

【我的投資組合數據】：
- 總入金（總本金）：%s TWD
- 當前總市值：%s TWD
- 未實現損益：%s TWD
- 可用現金流：%s TWD

【具體持股明細】：
%s

【任務要求】：
1. 分析當前市場「風度」對上述持股的潛在影響。
2. 評估現金與部位的佔比是否健康（目前現金佔比：%s%%）。
3. 給予短、中、長期的具體戰術建議（例如：減碼、續抱、或尋找新的價值窪地）。

請以繁體中文回答，條列式呈現，內容需簡練且具備高度專業質感。
`,
		p.Wind().Name,
		totals.TotalBudget.Value(),
		totals.MarketValue.Value(),
		profit,
		totals.AvailableCash.Value(),
		holdings.String(),
		totals.CashRatio().StringFixed(1),
	)
}
