package models

// Quote is one synthesized price/volume snapshot for a symbol
type Quote struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name,omitempty"`
	Exchange      string   `json:"exchange,omitempty"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"changePercent"`
	Volume        int64    `json:"volume"`
	High          *float64 `json:"high,omitempty"`
	Low           *float64 `json:"low,omitempty"`
	Open          *float64 `json:"open,omitempty"`
	Timestamp     string   `json:"timestamp"`
	Source        string   `json:"source,omitempty"`
	Currency      string   `json:"currency,omitempty"`
}

// IsGainer reports whether the quote closed above its base price
func (q Quote) IsGainer() bool {
	return q.ChangePercent > 0
}

// IsLoser reports whether the quote closed below its base price
func (q Quote) IsLoser() bool {
	return q.ChangePercent < 0
}

// Overview aggregates all quotes produced by one generation
type Overview struct {
	TotalSymbols    int     `json:"totalSymbols"`
	Gainers         []Quote `json:"gainers"`
	Losers          []Quote `json:"losers"`
	HighVolatility  []Quote `json:"highVolatility"`
	LastUpdated     string  `json:"lastUpdated"`
	MarketSentiment string  `json:"marketSentiment"`
	MarketStatus    string  `json:"marketStatus,omitempty"`
	TotalVolume     *int64  `json:"totalVolume,omitempty"`
	MarketCap       string  `json:"marketCap,omitempty"`
}

// MarketSnapshot is the document written by the CLI and returned by the API
type MarketSnapshot struct {
	MarketData []Quote   `json:"marketData"`
	Alerts     []Alert   `json:"alerts"`
	Overview   *Overview `json:"overview"`
}

// NewMarketSnapshot returns an empty, well-formed snapshot
func NewMarketSnapshot(lastUpdated, sentiment string) *MarketSnapshot {
	return &MarketSnapshot{
		MarketData: []Quote{},
		Alerts:     []Alert{},
		Overview: &Overview{
			Gainers:         []Quote{},
			Losers:          []Quote{},
			HighVolatility:  []Quote{},
			LastUpdated:     lastUpdated,
			MarketSentiment: sentiment,
		},
	}
}

// MarketMapping tells which market and data provider a symbol belongs to
type MarketMapping struct {
	Symbol      string `json:"symbol"`
	MarketType  string `json:"marketType"`
	APIProvider string `json:"apiProvider"`
	APISymbol   string `json:"apiSymbol"`
	Currency    string `json:"currency"`
	Exchange    string `json:"exchange,omitempty"`
	Country     string `json:"country,omitempty"`
}
