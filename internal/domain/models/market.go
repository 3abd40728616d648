package models

import "time"

// Category identifies one class of upstream market data.
type Category string

const (
	CategoryLive        Category = "live"
	CategorySummary     Category = "summary"
	CategoryStockDetail Category = "stock_detail"
	CategoryGainers     Category = "gainers"
	CategoryLosers      Category = "losers"
)

// FetchRequest describes one logical upstream fetch.
type FetchRequest struct {
	Category Category
	Symbol   string // set for CategoryStockDetail only
}

// RawPayload is the unparsed upstream response for one fetch.
// Nothing outside the normalizer may interpret Body.
type RawPayload struct {
	Category  Category
	Body      []byte
	FetchedAt time.Time
}

// MarketTick is one traded symbol's latest state.
type MarketTick struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percent_change"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// MarketIndices carries the exchange-level figures shown on the summary page.
// Figures missing upstream are derived from the tick table.
type MarketIndices struct {
	NepseIndex     float64 `json:"nepse_index"`
	SensitiveIndex float64 `json:"sensitive_index"`
	FloatIndex     float64 `json:"float_index"`
	TotalTurnover  float64 `json:"total_turnover"`
	Advances       int     `json:"advances"`
	Declines       int     `json:"declines"`
	Unchanged      int     `json:"unchanged"`
}

// MarketSummary is a full snapshot of the market: one tick per traded
// symbol (symbols unique) plus the as-of instant reported upstream.
type MarketSummary struct {
	AsOf    time.Time     `json:"as_of"`
	Indices MarketIndices `json:"indices"`
	Ticks   []MarketTick  `json:"ticks"`
}

// StockDetail extends MarketTick with per-company descriptive fields.
type StockDetail struct {
	MarketTick
	CompanyName string  `json:"company_name"`
	Sector      string  `json:"sector"`
	DayHigh     float64 `json:"day_high"`
	DayLow      float64 `json:"day_low"`
	WeekHigh52  float64 `json:"week_52_high"`
	WeekLow52   float64 `json:"week_52_low"`
}

// RankedEntry is one row of a gainers/losers list.
type RankedEntry struct {
	Symbol        string  `json:"symbol"`
	PercentChange float64 `json:"percent_change"`
}

// LiveResult is what the service returns for the live feed.
type LiveResult struct {
	AsOf  time.Time    `json:"as_of"`
	Stale bool         `json:"stale"`
	Ticks []MarketTick `json:"ticks"`
}

// SummaryResult wraps a MarketSummary with freshness metadata.
type SummaryResult struct {
	AsOf    time.Time     `json:"as_of"`
	Stale   bool          `json:"stale"`
	Summary MarketSummary `json:"summary"`
}

// DetailResult wraps a StockDetail with freshness metadata.
type DetailResult struct {
	AsOf   time.Time   `json:"as_of"`
	Stale  bool        `json:"stale"`
	Detail StockDetail `json:"detail"`
}

// RankedResult wraps a gainers/losers list with freshness metadata.
type RankedResult struct {
	AsOf    time.Time     `json:"as_of"`
	Stale   bool          `json:"stale"`
	Entries []RankedEntry `json:"entries"`
}
