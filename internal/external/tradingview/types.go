package tradingview

import "github.com/wonny/screener/internal/strategy"

// scanRequest is the POST body of {base}/{market}/scan
type scanRequest struct {
	Columns []string             `json:"columns"`
	Filter  []strategy.Predicate `json:"filter"`
	Markets []string             `json:"markets"`
	Options scanOptions          `json:"options"`
	Range   [2]int               `json:"range"`
	Symbols scanSymbols          `json:"symbols"`
}

type scanOptions struct {
	Lang string `json:"lang"`
}

type scanSymbols struct {
	Query   symbolQuery `json:"query"`
	Tickers []string    `json:"tickers"`
}

type symbolQuery struct {
	Types []string `json:"types"`
}

// scanResponse carries values positionally: D[i] belongs to Columns[i]
type scanResponse struct {
	TotalCount int        `json:"totalCount"`
	Data       []scanItem `json:"data"`
}

type scanItem struct {
	S string        `json:"s"` // "EXCHANGE:SYMBOL"
	D []interface{} `json:"d"`
}

// TickerField holds the exchange-qualified identifier of every row
const TickerField = "ticker"
