package services

import (
	"math"
	"math/rand"
	"time"

	"github.com/fenilmodi00/vnmarket/models"
)

// TimestampLayout is the ISO-8601 layout used for every timestamp in a snapshot
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// uniformFloat samples uniformly from [r.Min, r.Max]
func uniformFloat(rng *rand.Rand, r FloatRange) float64 {
	return r.Min + (r.Max-r.Min)*rng.Float64()
}

// uniformInt samples uniformly from the inclusive range [r.Min, r.Max]
func uniformInt(rng *rand.Rand, r IntRange) int64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Int63n(r.Max-r.Min+1)
}

// SynthesizeQuote builds one mock quote for an already normalized symbol.
// The draw order is changePercent then volume, which keeps seeded output stable.
func SynthesizeQuote(symbol string, policy *Policy, rng *rand.Rand, now time.Time) models.Quote {
	basePrice, _ := policy.BasePrice(symbol)

	changePercent := uniformFloat(rng, policy.ChangePercentRange)
	change := basePrice * changePercent / 100
	price := basePrice + change
	volume := uniformInt(rng, policy.VolumeRange)

	quote := models.Quote{
		Symbol:        symbol,
		Price:         roundHalfEven(price, 0),
		Change:        roundHalfEven(change, 0),
		ChangePercent: roundHalfEven(changePercent, 2),
		Volume:        volume,
		Timestamp:     now.Format(TimestampLayout),
		Source:        policy.Fields.Source,
		Currency:      policy.Fields.Currency,
	}

	if policy.Fields.Name {
		quote.Name = symbol
		if name, ok := policy.CompanyNames[symbol]; ok {
			quote.Name = name
		}
	}

	if policy.Fields.Exchange {
		quote.Exchange = policy.Fields.DefaultExchange
		if exchange, ok := policy.Exchanges[symbol]; ok {
			quote.Exchange = exchange
		}
	}

	if policy.Fields.Range {
		high := roundHalfEven(price*(1+policy.Fields.RangeFactor), 0)
		low := roundHalfEven(price*(1-policy.Fields.RangeFactor), 0)
		open := roundHalfEven(basePrice, 0)
		quote.High = &high
		quote.Low = &low
		quote.Open = &open
	}

	return quote
}

// IsHighVolatility reports whether the quote moved more than the overview threshold
func IsHighVolatility(quote models.Quote, policy *Policy) bool {
	return math.Abs(quote.ChangePercent) > policy.OverviewVolatilityThreshold
}

// ClassifySentiment maps gainer/loser counts to the policy's sentiment label
func ClassifySentiment(gainers, losers int, sentiment SentimentPolicy) string {
	g, l := float64(gainers), float64(losers)

	switch sentiment.Rule {
	case SentimentRatio:
		if g > l*sentiment.Ratio {
			return sentiment.Labels.Bullish
		}
		if l > g*sentiment.Ratio {
			return sentiment.Labels.Bearish
		}
	default:
		if gainers > losers {
			return sentiment.Labels.Bullish
		}
		if losers > gainers {
			return sentiment.Labels.Bearish
		}
	}
	return sentiment.Labels.Neutral
}

// BuildOverview classifies quotes into gainers, losers and high-volatility lists
func BuildOverview(quotes []models.Quote, policy *Policy, lastUpdated string) *models.Overview {
	overview := &models.Overview{
		TotalSymbols:   len(quotes),
		Gainers:        []models.Quote{},
		Losers:         []models.Quote{},
		HighVolatility: []models.Quote{},
		LastUpdated:    lastUpdated,
		MarketStatus:   policy.Overview.MarketStatus,
		MarketCap:      policy.Overview.MarketCap,
	}

	var totalVolume int64
	for _, quote := range quotes {
		totalVolume += quote.Volume

		if quote.IsGainer() {
			overview.Gainers = append(overview.Gainers, quote)
		} else if quote.IsLoser() {
			overview.Losers = append(overview.Losers, quote)
		}

		if IsHighVolatility(quote, policy) {
			overview.HighVolatility = append(overview.HighVolatility, quote)
		}
	}

	if policy.Overview.TotalVolume {
		overview.TotalVolume = &totalVolume
	}

	overview.MarketSentiment = ClassifySentiment(len(overview.Gainers), len(overview.Losers), policy.Sentiment)
	return overview
}
