package screener

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/internal/sanitize"
	"github.com/wonny/screener/internal/strategy"
)

// SkipReason explains why a row produced no signal
type SkipReason string

const (
	Accepted           SkipReason = ""
	SkipNoSymbol       SkipReason = "no_symbol"
	SkipPriceOutOfBand SkipReason = "price_out_of_band"
)

// Normalize turns one raw row into a Signal.
//
// The symbol is the segment after the last ':' of the "name" field.
// Rows with an empty symbol, a zero price or a price outside
// [PriceMin, PriceMax] are skipped; the band re-check guards against
// the scanner not enforcing the strategy's own close filter.
func Normalize(def strategy.Definition, row contracts.Row) (contracts.Signal, SkipReason) {
	symbol := Symbol(row[strategy.FieldName])
	if symbol == "" {
		return contracts.Signal{}, SkipNoSymbol
	}

	price := Price(row[strategy.FieldClose])
	if price == 0 || !(price >= strategy.PriceMin && price <= strategy.PriceMax) {
		return contracts.Signal{}, SkipPriceOutOfBand
	}

	indicators := make(map[string]interface{}, len(row))
	for k, v := range row {
		if k == strategy.FieldName {
			continue
		}
		indicators[k] = v
	}

	return contracts.Signal{
		Symbol:       symbol,
		StrategyKey:  def.Key,
		StrategyName: def.Name,
		Price:        price,
		Indicators:   sanitize.Map(indicators),
	}, Accepted
}

// Symbol extracts the base ticker from "EXCHANGE:SYMBOL".
// Without a ':' the whole string is the symbol.
func Symbol(v interface{}) string {
	name, ok := v.(string)
	if !ok {
		return ""
	}

	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(name)
}

// Price reads a numeric close; anything missing or non-numeric is 0
func Price(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f
	default:
		return 0
	}
}
