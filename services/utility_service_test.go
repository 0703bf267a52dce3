package services

import (
	"testing"

	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSymbols(t *testing.T) {
	assert.Equal(t, []string{"FPT", "VCB", "", "HPG"}, SplitSymbols("FPT, VCB,, HPG "))
	assert.Equal(t, []string{""}, SplitSymbols(""))
}

func TestNormalizeSymbol(t *testing.T) {
	standard := mustPolicy(t, VariantStandard)
	simple := mustPolicy(t, VariantSimple)

	tests := []struct {
		name     string
		raw      string
		policy   *Policy
		expected string
		code     string
	}{
		{"standard uppercases", " fpt ", standard, "FPT", ""},
		{"standard rejects unknown", "AAPL", standard, "", "UNKNOWN_SYMBOL"},
		{"simple keeps case", "abc", simple, "abc", ""},
		{"simple accepts dotted tickers", "VN30.F1", simple, "VN30.F1", ""},
		{"empty is malformed", "", simple, "", "MALFORMED_SYMBOL"},
		{"inner space is malformed", "F PT", simple, "", "MALFORMED_SYMBOL"},
		{"punctuation is malformed", "??", standard, "", "MALFORMED_SYMBOL"},
		{"too long is malformed", "ABCDEFGHIJKLMNOPQRSTU", simple, "", "MALFORMED_SYMBOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, err := NormalizeSymbol(tt.raw, tt.policy)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, symbol)
				return
			}

			var serviceErr *shared.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, tt.code, serviceErr.Code)
			assert.True(t, shared.IsValidationError(err))
		})
	}
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, float64(2), roundHalfEven(2.5, 0))
	assert.Equal(t, float64(4), roundHalfEven(3.5, 0))
	assert.Equal(t, 0.12, roundHalfEven(0.125, 2))
	assert.Equal(t, -1.24, roundHalfEven(-1.235, 2))
	assert.Equal(t, float64(127500), roundHalfEven(127499.7, 0))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "-4.00", formatChange(-4, 2))
	assert.Equal(t, "3.1", formatChange(3.14, 1))
}

func TestRenderTemplateComposesVietnamese(t *testing.T) {
	decomposed := "Bie\u0302\u0301n \u0111o\u0323\u0302ng {symbol} {change}%"
	rendered := renderTemplate(decomposed, "FPT", "4.0")
	assert.Equal(t, "Biến động FPT 4.0%", rendered)
}

func TestIdentifyMarket(t *testing.T) {
	tests := []struct {
		symbol     string
		marketType string
		provider   string
		apiSymbol  string
		currency   string
	}{
		{"BTC", "crypto", "coingecko", "bitcoin", "USD"},
		{"eth/usd", "crypto", "coingecko", "ethereum", "USD"},
		{"SOL/USDT", "crypto", "coingecko", "sol", "USD"},
		{"EUR/JPY", "forex", "alpha_vantage", "EUR/JPY", "USD"},
		{"fpt", "vietnam_stock", "yahoo_finance", "FPT.VN", "VND"},
		{"AAPL", "us_stock", "alpha_vantage", "AAPL", "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			mapping := IdentifyMarket(tt.symbol)
			assert.Equal(t, tt.marketType, mapping.MarketType)
			assert.Equal(t, tt.provider, mapping.APIProvider)
			assert.Equal(t, tt.apiSymbol, mapping.APISymbol)
			assert.Equal(t, tt.currency, mapping.Currency)
		})
	}

	vn := IdentifyMarket("VCB")
	assert.Equal(t, "HOSE", vn.Exchange)
	assert.Equal(t, "Vietnam", vn.Country)
}
