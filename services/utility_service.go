package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/fenilmodi00/vnmarket/models"
	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var symbolPattern = regexp.MustCompile(`^[\p{L}\p{N}._-]{1,20}$`)

// toUpper upper-cases s with Unicode rules. A Caser keeps state, so each call builds its own.
func toUpper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// SplitSymbols splits a comma-separated argument into trimmed entries.
// Empty entries are kept so that they can be reported as malformed.
func SplitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		symbols = append(symbols, strings.TrimSpace(part))
	}
	return symbols
}

// NormalizeSymbol validates one raw symbol against the policy and returns its canonical form
func NormalizeSymbol(raw string, policy *Policy) (string, error) {
	symbol := strings.TrimSpace(raw)
	if policy.UppercaseInput {
		symbol = toUpper(symbol)
	}

	if !symbolPattern.MatchString(symbol) {
		return "", shared.NewServiceError(
			shared.ErrorCategoryValidation,
			"MALFORMED_SYMBOL",
			fmt.Sprintf("malformed symbol %q", raw),
			"SnapshotService",
			"NormalizeSymbol",
			nil,
		)
	}

	if policy.RestrictToUniverse {
		if _, known := policy.BasePrice(symbol); !known {
			return "", shared.NewServiceError(
				shared.ErrorCategoryValidation,
				"UNKNOWN_SYMBOL",
				fmt.Sprintf("symbol %s is not in the %s universe", symbol, policy.Name),
				"SnapshotService",
				"NormalizeSymbol",
				nil,
			)
		}
	}

	return symbol, nil
}

// roundHalfEven rounds to places decimals with banker's rounding
func roundHalfEven(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, _ := decimal.NewFromFloat(value).RoundBank(places).Float64()
	return rounded
}

// formatChange renders a percentage for alert text with a fixed number of decimals
func formatChange(value float64, decimals int) string {
	return strconv.FormatFloat(value, 'f', decimals, 64)
}

// renderTemplate substitutes {symbol} and {change} and returns NFC-normalized text
func renderTemplate(template, symbol, change string) string {
	replacer := strings.NewReplacer("{symbol}", symbol, "{change}", change)
	return norm.NFC.String(replacer.Replace(template))
}

var vietnamStocks = map[string]bool{
	"FPT": true, "VCB": true, "VIC": true, "VNM": true, "HPG": true,
	"MSN": true, "TCB": true, "BID": true, "CTG": true, "VJC": true,
	"GAS": true, "PLX": true, "POW": true, "NVL": true, "TPB": true,
	"MBB": true, "ACB": true, "STB": true, "HDB": true, "EIB": true,
	"SSI": true, "VND": true, "VRE": true, "PDR": true, "KDH": true,
	"DIG": true, "FLC": true, "PNJ": true, "MWG": true, "REE": true,
}

var cryptoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^BTC`), regexp.MustCompile(`^ETH`), regexp.MustCompile(`^ADA`),
	regexp.MustCompile(`^DOT`), regexp.MustCompile(`^LINK`), regexp.MustCompile(`^UNI`),
	regexp.MustCompile(`^AAVE`), regexp.MustCompile(`^COMP`),
	regexp.MustCompile(`/USD$`), regexp.MustCompile(`/USDT$`),
	regexp.MustCompile(`/BTC$`), regexp.MustCompile(`/ETH$`),
}

var forexPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`),
	regexp.MustCompile(`^(USD|EUR|GBP|JPY|AUD|CAD|CHF|NZD)`),
}

var coingeckoIDs = map[string]string{
	"BTC":     "bitcoin",
	"BTC/USD": "bitcoin",
	"ETH":     "ethereum",
	"ETH/USD": "ethereum",
	"ADA":     "cardano",
	"DOT":     "polkadot",
	"LINK":    "chainlink",
	"UNI":     "uniswap",
}

// IdentifyMarket classifies a symbol and names the provider that would serve real data for it
func IdentifyMarket(symbol string) models.MarketMapping {
	upper := toUpper(strings.TrimSpace(symbol))

	if matchesAny(cryptoPatterns, upper) {
		apiSymbol, ok := coingeckoIDs[upper]
		if !ok {
			apiSymbol = strings.ToLower(upper)
			if idx := strings.Index(apiSymbol, "/"); idx >= 0 {
				apiSymbol = apiSymbol[:idx]
			}
		}
		return models.MarketMapping{
			Symbol:      upper,
			MarketType:  "crypto",
			APIProvider: "coingecko",
			APISymbol:   apiSymbol,
			Currency:    "USD",
		}
	}

	if matchesAny(forexPatterns, upper) {
		return models.MarketMapping{
			Symbol:      upper,
			MarketType:  "forex",
			APIProvider: "alpha_vantage",
			APISymbol:   upper,
			Currency:    "USD",
		}
	}

	if vietnamStocks[upper] {
		return models.MarketMapping{
			Symbol:      upper,
			MarketType:  "vietnam_stock",
			APIProvider: "yahoo_finance",
			APISymbol:   upper + ".VN",
			Currency:    "VND",
			Exchange:    "HOSE",
			Country:     "Vietnam",
		}
	}

	return models.MarketMapping{
		Symbol:      upper,
		MarketType:  "us_stock",
		APIProvider: "alpha_vantage",
		APISymbol:   upper,
		Currency:    "USD",
		Exchange:    "NASDAQ",
		Country:     "United States",
	}
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, pattern := range patterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}
