package strategy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Required columns every definition must request
const (
	FieldName  = "name"  // composite "EXCHANGE:SYMBOL"
	FieldClose = "close" // price
)

// PriceMin and PriceMax bound the universal price band every strategy filters on
const (
	PriceMin = 25.0
	PriceMax = 100.0
)

// Definition is one named strategy filter
type Definition struct {
	Key        string      `json:"key" yaml:"key"`
	Name       string      `json:"name" yaml:"name"`
	Predicates []Predicate `json:"predicates" yaml:"predicates"`
	Columns    []string    `json:"columns" yaml:"columns"`
}

// Catalog is the ordered, immutable set of strategies for a run
// ⭐ SSOT: 전략 정의는 여기서만
type Catalog struct {
	defs  []Definition
	index map[string]int
}

// NewCatalog builds a validated catalog. Definitions are copied.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, len(defs)),
		index: make(map[string]int, len(defs)),
	}

	for i, d := range defs {
		c.defs[i] = d.clone()
		c.index[d.Key] = i
	}

	if err := Validate(defs); err != nil {
		return nil, err
	}

	return c, nil
}

// Definitions returns a copy of the definitions in catalog order
func (c *Catalog) Definitions() []Definition {
	out := make([]Definition, len(c.defs))
	for i, d := range c.defs {
		out[i] = d.clone()
	}
	return out
}

// Len returns the number of strategies
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Keys returns strategy keys in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.defs))
	for i, d := range c.defs {
		keys[i] = d.Key
	}
	return keys
}

// Lookup finds a definition by key
func (c *Catalog) Lookup(key string) (Definition, bool) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i].clone(), true
}

// Hash returns SHA256 over the canonical JSON of the catalog
// 주의: map 대신 slice 사용으로 해시 재현성 보장
func (c *Catalog) Hash() (string, error) {
	data, err := json.Marshal(c.defs)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func (d Definition) clone() Definition {
	out := d
	out.Predicates = append([]Predicate(nil), d.Predicates...)
	out.Columns = append([]string(nil), d.Columns...)
	return out
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := NewCatalog(defaultDefinitions())
	if err != nil {
		// built-in data is covered by tests
		panic("strategy: invalid built-in catalog: " + err.Error())
	}
	return c
}

func defaultDefinitions() []Definition {
	priceBand := Col("close").Between(PriceMin, PriceMax)
	liquid := Col("volume").Gt(500_000)

	return []Definition{
		{
			Key:  "rsi_stochastic_oversold",
			Name: "RSI-Stochastic Double Oversold",
			Predicates: []Predicate{
				priceBand,
				Col("RSI").Lt(40),
				Col("Stoch.K").Lt(30),
				Col("MACD.macd").GtCol("MACD.signal"),
				liquid,
			},
			Columns: []string{"name", "close", "RSI", "Stoch.K", "Stoch.D", "MACD.macd", "MACD.signal", "volume", "change"},
		},
		{
			Key:  "adx_trend_pullback",
			Name: "ADX Trend + MA Pullback",
			Predicates: []Predicate{
				priceBand,
				Col("ADX").Gt(20),
				Col("ADX+DI").GtCol("ADX-DI"),
				Col("close").GtCol("SMA50"),
				liquid,
			},
			Columns: []string{"name", "close", "ADX", "ADX+DI", "ADX-DI", "SMA20", "SMA50", "volume", "change"},
		},
		{
			Key:  "bollinger_squeeze",
			Name: "Bollinger Squeeze Breakout",
			Predicates: []Predicate{
				priceBand,
				Col("BB.width").Lt(15),
				Col("close").GtCol("BB.upper"),
				Col("Mom").Gt(0),
				liquid,
			},
			Columns: []string{"name", "close", "BB.upper", "BB.lower", "BB.width", "Mom", "volume", "change"},
		},
		{
			Key:  "macd_bb_volume",
			Name: "MACD-BB-Volume Triple Filter",
			Predicates: []Predicate{
				priceBand,
				Col("MACD.macd").GtCol("MACD.signal"),
				Col("close").GtCol("BB.middle"),
				Col("RSI").Between(40, 70),
				liquid,
			},
			Columns: []string{"name", "close", "MACD.macd", "MACD.signal", "BB.middle", "RSI", "volume", "change"},
		},
		{
			Key:  "stochastic_rsi_sync",
			Name: "Stochastic-RSI Momentum Sync",
			Predicates: []Predicate{
				priceBand,
				Col("Stoch.K").GtCol("Stoch.D"),
				Col("RSI").Between(30, 55),
				Col("close").GtCol("SMA50"),
				liquid,
			},
			Columns: []string{"name", "close", "Stoch.K", "Stoch.D", "RSI", "SMA50", "volume", "change"},
		},
		{
			Key:  "rsi_mean_reversion",
			Name: "RSI Mean Reversion",
			Predicates: []Predicate{
				priceBand,
				Col("RSI").Lt(35),
				liquid,
			},
			Columns: []string{"name", "close", "RSI", "volume", "change"},
		},
		{
			Key:  "macd_momentum",
			Name: "MACD Momentum Crossover",
			Predicates: []Predicate{
				priceBand,
				Col("MACD.macd").GtCol("MACD.signal"),
				Col("close").GtCol("SMA50"),
				liquid,
			},
			Columns: []string{"name", "close", "MACD.macd", "MACD.signal", "SMA50", "volume", "change"},
		},
		{
			Key:  "volume_breakout",
			Name: "Volume Breakout Scanner",
			Predicates: []Predicate{
				priceBand,
				Col("relative_volume_10d_calc").Gt(2.0),
				Col("close").AbovePct("price_52_week_high", 0.95), // near 52-week high
				Col("volume").Gt(1_000_000),
			},
			Columns: []string{"name", "close", "relative_volume_10d_calc", "price_52_week_high", "volume", "change"},
		},
	}
}
