package services

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/fenilmodi00/vnmarket/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var universe = []string{"FPT", "VCB", "HPG", "VHM", "VNM", "TCB", "MSN", "VIC", "CTG", "BID"}

func symbolsFromIndexes(indexes []int) []string {
	symbols := make([]string, len(indexes))
	for i, idx := range indexes {
		symbols[i] = universe[idx]
	}
	return symbols
}

func mustPolicy(t *testing.T, name string) *Policy {
	t.Helper()
	policy, err := PolicyFor(name)
	require.NoError(t, err)
	return policy
}

// TestSnapshotProperties checks the invariants every generated snapshot must hold
func TestSnapshotProperties(t *testing.T) {
	for _, variant := range VariantNames() {
		variant := variant
		t.Run(variant, func(t *testing.T) {
			policy := mustPolicy(t, variant)
			properties := gopter.NewProperties(nil)

			properties.Property("marketData has one quote per symbol in input order", prop.ForAll(
				func(indexes []int, seed int64) bool {
					symbols := symbolsFromIndexes(indexes)
					snapshot := NewSnapshotService(seed, fixedClock).Generate(policy, symbols)

					if len(snapshot.MarketData) != len(symbols) || snapshot.Overview.TotalSymbols != len(symbols) {
						return false
					}
					for i, quote := range snapshot.MarketData {
						if quote.Symbol != symbols[i] {
							return false
						}
					}
					return true
				},
				gen.SliceOf(gen.IntRange(0, len(universe)-1)),
				gen.Int64(),
			))

			properties.Property("gainers and losers partition the quotes with nonzero change", prop.ForAll(
				func(indexes []int, seed int64) bool {
					snapshot := NewSnapshotService(seed, fixedClock).Generate(policy, symbolsFromIndexes(indexes))

					nonzero := 0
					for _, quote := range snapshot.MarketData {
						if quote.ChangePercent != 0 {
							nonzero++
						}
					}
					for _, quote := range snapshot.Overview.Gainers {
						if quote.ChangePercent <= 0 {
							return false
						}
					}
					for _, quote := range snapshot.Overview.Losers {
						if quote.ChangePercent >= 0 {
							return false
						}
					}
					return len(snapshot.Overview.Gainers)+len(snapshot.Overview.Losers) == nonzero
				},
				gen.SliceOf(gen.IntRange(0, len(universe)-1)),
				gen.Int64(),
			))

			properties.Property("alerts are sorted by severity and capped", prop.ForAll(
				func(indexes []int, seed int64) bool {
					snapshot := NewSnapshotService(seed, fixedClock).Generate(policy, symbolsFromIndexes(indexes))

					if len(snapshot.Alerts) > policy.MaxAlerts {
						return false
					}
					for i := 1; i < len(snapshot.Alerts); i++ {
						if snapshot.Alerts[i-1].Severity.Rank() < snapshot.Alerts[i].Severity.Rank() {
							return false
						}
					}
					return true
				},
				gen.SliceOf(gen.IntRange(0, len(universe)-1)),
				gen.Int64(),
			))

			properties.Property("sampled quotes stay inside the policy ranges", prop.ForAll(
				func(indexes []int, seed int64) bool {
					snapshot := NewSnapshotService(seed, fixedClock).Generate(policy, symbolsFromIndexes(indexes))

					for _, quote := range snapshot.MarketData {
						if quote.ChangePercent < policy.ChangePercentRange.Min || quote.ChangePercent > policy.ChangePercentRange.Max {
							return false
						}
						if quote.Volume < policy.VolumeRange.Min || quote.Volume > policy.VolumeRange.Max {
							return false
						}
						base, _ := policy.BasePrice(quote.Symbol)
						if math.Abs(quote.Price-(base+quote.Change)) > 1 {
							return false
						}
					}
					return true
				},
				gen.SliceOf(gen.IntRange(0, len(universe)-1)),
				gen.Int64(),
			))

			properties.Property("a fixed seed and clock reproduce byte-identical output", prop.ForAll(
				func(indexes []int, seed int64) bool {
					symbols := symbolsFromIndexes(indexes)
					first, err := json.Marshal(NewSnapshotService(seed, fixedClock).Generate(policy, symbols))
					if err != nil {
						return false
					}
					second, err := json.Marshal(NewSnapshotService(seed, fixedClock).Generate(policy, symbols))
					if err != nil {
						return false
					}
					return string(first) == string(second)
				},
				gen.SliceOf(gen.IntRange(0, len(universe)-1)),
				gen.Int64(),
			))

			properties.TestingRun(t, gopter.ConsoleReporter(false))
		})
	}
}

func TestGenerateEmptyInput(t *testing.T) {
	for _, variant := range VariantNames() {
		policy := mustPolicy(t, variant)
		snapshot := NewSnapshotService(1, fixedClock).Generate(policy, nil)

		assert.Equal(t, 0, snapshot.Overview.TotalSymbols, variant)
		assert.Empty(t, snapshot.MarketData, variant)
		assert.Empty(t, snapshot.Alerts, variant)
		assert.Equal(t, policy.Sentiment.Labels.Neutral, snapshot.Overview.MarketSentiment, variant)

		data, err := json.Marshal(snapshot)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"marketData":[]`)
		assert.Contains(t, string(data), `"alerts":[]`)
		assert.Contains(t, string(data), `"gainers":[]`)
	}
}

func TestGenerateSkipsMalformedSymbols(t *testing.T) {
	policy := mustPolicy(t, VariantStandard)
	snapshot := NewSnapshotService(7, fixedClock).Generate(policy, []string{" fpt ", "??", "", "XYZ", "VCB"})

	require.Len(t, snapshot.MarketData, 2)
	assert.Equal(t, "FPT", snapshot.MarketData[0].Symbol)
	assert.Equal(t, "VCB", snapshot.MarketData[1].Symbol)
	assert.Equal(t, 2, snapshot.Overview.TotalSymbols)
}

func TestGenerateStandardFilteredInputIsEmpty(t *testing.T) {
	policy := mustPolicy(t, VariantStandard)
	snapshot := NewSnapshotService(3, fixedClock).Generate(policy, []string{"AAPL", "GOOGL"})

	assert.Equal(t, 0, snapshot.Overview.TotalSymbols)
	assert.Empty(t, snapshot.MarketData)
	assert.Empty(t, snapshot.Alerts)
}

func TestGenerateSimplePricesUnknownSymbolsAtFallback(t *testing.T) {
	policy := mustPolicy(t, VariantSimple)
	snapshot := NewSnapshotService(11, fixedClock).Generate(policy, []string{"ABC"})

	require.Len(t, snapshot.MarketData, 1)
	quote := snapshot.MarketData[0]
	assert.Equal(t, "ABC", quote.Name)
	assert.Equal(t, "HSX", quote.Exchange)
	assert.Equal(t, "VND", quote.Currency)
	assert.GreaterOrEqual(t, quote.Price, math.Floor(DefaultBasePrice*(1-0.035)))
	assert.LessOrEqual(t, quote.Price, math.Ceil(DefaultBasePrice*(1+0.042)))
	require.NotNil(t, snapshot.Overview.TotalVolume)
	assert.Equal(t, quote.Volume, *snapshot.Overview.TotalVolume)
}

func TestGenerateFieldSetsPerVariant(t *testing.T) {
	standard := NewSnapshotService(5, fixedClock).Generate(mustPolicy(t, VariantStandard), []string{"FPT"})
	require.Len(t, standard.MarketData, 1)
	q := standard.MarketData[0]
	assert.Equal(t, "vnstock_mock", q.Source)
	assert.Empty(t, q.Name)
	assert.Empty(t, q.Currency)
	require.NotNil(t, q.Open)
	assert.Equal(t, float64(125000), *q.Open)
	require.NotNil(t, q.High)
	require.NotNil(t, q.Low)
	assert.Greater(t, *q.High, *q.Low)
	assert.Nil(t, standard.Overview.TotalVolume)
	assert.Empty(t, standard.Overview.MarketStatus)

	simple := NewSnapshotService(5, fixedClock).Generate(mustPolicy(t, VariantSimple), []string{"VCB"})
	require.Len(t, simple.MarketData, 1)
	s := simple.MarketData[0]
	assert.Equal(t, "Ngân hàng Vietcombank", s.Name)
	assert.Nil(t, s.High)
	assert.Empty(t, s.Source)
	assert.Equal(t, "Đang giao dịch", simple.Overview.MarketStatus)
	assert.Equal(t, "Thị trường Việt Nam", simple.Overview.MarketCap)
	assert.Equal(t, fixedNow.Format(TimestampLayout), s.Timestamp)
}

func TestGenerateRecordsMetrics(t *testing.T) {
	service := NewSnapshotService(9, fixedClock)
	service.Generate(mustPolicy(t, VariantStandard), []string{"FPT", "bad symbol", "VCB"})

	snapshot := service.GetServiceMetrics().GetSnapshot()
	assert.Equal(t, int64(1), snapshot.TotalRequests)
	assert.Equal(t, int64(1), snapshot.SuccessfulRequests)
	assert.Equal(t, int64(3), snapshot.CustomMetrics["symbols_requested"])
	assert.Equal(t, int64(1), snapshot.CustomMetrics["symbols_skipped"])
}

func TestGenerateReturnsPartialSnapshotWhenAlertStageFails(t *testing.T) {
	policy := mustPolicy(t, VariantStandard)
	// set after validation, which would reject it
	policy.News.MaxSymbols = -1

	service := NewSnapshotService(9, fixedClock)
	var snapshot *models.MarketSnapshot
	require.NotPanics(t, func() {
		snapshot = service.Generate(policy, []string{"FPT", "VCB"})
	})

	require.Len(t, snapshot.MarketData, 2)
	assert.Equal(t, 2, snapshot.Overview.TotalSymbols)
	assert.NotNil(t, snapshot.Alerts)
	assert.Empty(t, snapshot.Alerts)

	metrics := service.GetServiceMetrics().GetSnapshot()
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.FailedRequests)
	assert.Equal(t, int64(0), metrics.SuccessfulRequests)
}

func TestBuildOverviewClassification(t *testing.T) {
	policy := mustPolicy(t, VariantSimple)
	quotes := []models.Quote{
		{Symbol: "A", ChangePercent: 2.5, Volume: 10},
		{Symbol: "B", ChangePercent: 0, Volume: 20},
		{Symbol: "C", ChangePercent: -1.2, Volume: 30},
		{Symbol: "D", ChangePercent: -2.01, Volume: 40},
	}

	overview := BuildOverview(quotes, policy, "now")

	assert.Len(t, overview.Gainers, 1)
	assert.Len(t, overview.Losers, 2)
	assert.Len(t, overview.HighVolatility, 2)
	assert.Equal(t, "tiêu cực", overview.MarketSentiment)
	require.NotNil(t, overview.TotalVolume)
	assert.Equal(t, int64(100), *overview.TotalVolume)
}

func TestClassifySentiment(t *testing.T) {
	ratio := mustPolicy(t, VariantStandard).Sentiment
	majority := mustPolicy(t, VariantSimple).Sentiment

	tests := []struct {
		name      string
		gainers   int
		losers    int
		sentiment SentimentPolicy
		expected  string
	}{
		{"ratio bullish", 4, 2, ratio, "bullish"},
		{"ratio at boundary is neutral", 3, 2, ratio, "neutral"},
		{"ratio bearish", 0, 1, ratio, "bearish"},
		{"ratio empty", 0, 0, ratio, "neutral"},
		{"majority positive", 3, 2, majority, "tích cực"},
		{"majority negative", 1, 2, majority, "tiêu cực"},
		{"majority tie", 2, 2, majority, "trung tính"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifySentiment(tt.gainers, tt.losers, tt.sentiment))
		})
	}
}
