package services

import (
	"fmt"
	"os"
	"sort"

	"github.com/fenilmodi00/vnmarket/shared"
	"gopkg.in/yaml.v3"
)

const (
	VariantStandard = "standard"
	VariantSimple   = "simple"

	SentimentRatio    = "ratio"
	SentimentMajority = "majority"

	UsageErrorText = "text"
	UsageErrorJSON = "json"

	DefaultBasePrice = 50000
	DefaultNewsLimit = 5
	DefaultMaxAlerts = 10
)

// FloatRange is an inclusive sampling range
type FloatRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// IntRange is an inclusive sampling range
type IntRange struct {
	Min int64 `yaml:"min"`
	Max int64 `yaml:"max"`
}

// SentimentLabels is the vocabulary used for marketSentiment
type SentimentLabels struct {
	Bullish string `yaml:"bullish"`
	Bearish string `yaml:"bearish"`
	Neutral string `yaml:"neutral"`
}

// SentimentPolicy selects how gainer/loser counts map to a sentiment label
type SentimentPolicy struct {
	Rule   string          `yaml:"rule"`
	Ratio  float64         `yaml:"ratio"`
	Labels SentimentLabels `yaml:"labels"`
}

// AlertTemplate is the text of one alert kind. Description may use {symbol} and {change}.
type AlertTemplate struct {
	IDPrefix       string `yaml:"id_prefix"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Recommendation string `yaml:"recommendation"`
}

// VolatilityAlertPolicy raises high_volatility alerts on large moves
type VolatilityAlertPolicy struct {
	Enabled bool `yaml:"enabled"`
	// Threshold on |changePercent| for a medium alert
	Threshold float64 `yaml:"threshold"`
	// SevereThreshold on |changePercent| for a high alert
	SevereThreshold float64 `yaml:"severe_threshold"`
	// SignedChange renders {change} with its sign instead of the magnitude
	SignedChange bool `yaml:"signed_change"`
	// ChangeDecimals is the number of decimals used for {change}
	ChangeDecimals int           `yaml:"change_decimals"`
	Template       AlertTemplate `yaml:"template"`
}

// PriceTargetPolicy raises price_target alerts on breakouts and drops
type PriceTargetPolicy struct {
	Enabled           bool          `yaml:"enabled"`
	BreakoutThreshold float64       `yaml:"breakout_threshold"`
	DropThreshold     float64       `yaml:"drop_threshold"`
	ChangeDecimals    int           `yaml:"change_decimals"`
	Breakout          AlertTemplate `yaml:"breakout"`
	Drop              AlertTemplate `yaml:"drop"`
}

// VolumeSpikePolicy raises volume_spike alerts above a traded volume
type VolumeSpikePolicy struct {
	Enabled   bool          `yaml:"enabled"`
	Threshold int64         `yaml:"threshold"`
	Template  AlertTemplate `yaml:"template"`
}

// NewsPolicy controls templated news_impact alerts
type NewsPolicy struct {
	Enabled bool `yaml:"enabled"`
	// MaxSymbols caps how many leading symbols receive news
	MaxSymbols int `yaml:"max_symbols"`
	// PerSymbol caps news items per symbol; the effective count is min(PerSymbol, limit)
	PerSymbol      int      `yaml:"per_symbol"`
	Title          string   `yaml:"title"`
	IDPrefix       string   `yaml:"id_prefix"`
	Recommendation string   `yaml:"recommendation"`
	Headlines      []string `yaml:"headlines"`
}

// QuoteFields selects the optional Quote fields a variant emits
type QuoteFields struct {
	Name     bool `yaml:"name"`
	Exchange bool `yaml:"exchange"`
	// Range adds high/low around price and open at the base price
	Range           bool    `yaml:"range"`
	RangeFactor     float64 `yaml:"range_factor"`
	Source          string  `yaml:"source"`
	Currency        string  `yaml:"currency"`
	DefaultExchange string  `yaml:"default_exchange"`
}

// OverviewExtras are the optional Overview fields a variant emits
type OverviewExtras struct {
	TotalVolume  bool   `yaml:"total_volume"`
	MarketStatus string `yaml:"market_status"`
	MarketCap    string `yaml:"market_cap"`
}

// Policy bundles every constant that distinguishes one generator variant from another
type Policy struct {
	Name string `yaml:"name"`

	BasePrices     map[string]float64 `yaml:"base_prices"`
	CompanyNames   map[string]string  `yaml:"company_names"`
	Exchanges      map[string]string  `yaml:"exchanges"`
	FallbackPrice  float64            `yaml:"fallback_price"`
	UppercaseInput bool               `yaml:"uppercase_input"`
	// RestrictToUniverse drops symbols missing from BasePrices
	RestrictToUniverse bool `yaml:"restrict_to_universe"`

	ChangePercentRange FloatRange `yaml:"change_percent_range"`
	VolumeRange        IntRange   `yaml:"volume_range"`

	// OverviewVolatilityThreshold on |changePercent| for overview.highVolatility
	OverviewVolatilityThreshold float64 `yaml:"overview_volatility_threshold"`

	Sentiment   SentimentPolicy       `yaml:"sentiment"`
	Volatility  VolatilityAlertPolicy `yaml:"volatility_alert"`
	PriceTarget PriceTargetPolicy     `yaml:"price_target_alert"`
	VolumeSpike VolumeSpikePolicy     `yaml:"volume_spike_alert"`
	News        NewsPolicy            `yaml:"news"`

	Fields   QuoteFields    `yaml:"fields"`
	Overview OverviewExtras `yaml:"overview"`

	NewsLimit       int    `yaml:"news_limit"`
	MaxAlerts       int    `yaml:"max_alerts"`
	UsageErrorStyle string `yaml:"usage_error_style"`
}

var standardBasePrices = map[string]float64{
	"FPT": 125000,
	"VCB": 85000,
	"HPG": 25000,
	"VHM": 45000,
	"VNM": 75000,
	"TCB": 55000,
	"MSN": 150000,
	"VIC": 35000,
	"CTG": 42000,
	"BID": 48000,
}

var simpleBasePrices = map[string]float64{
	"FPT": 125000,
	"VCB": 95000,
	"HPG": 28000,
	"VHM": 65000,
	"VNM": 58000,
	"TCB": 25000,
	"MSN": 145000,
	"VIC": 42000,
	"CTG": 35000,
	"BID": 28000,
}

var companyNames = map[string]string{
	"FPT": "FPT Corporation",
	"VCB": "Ngân hàng Vietcombank",
	"HPG": "Tập đoàn Hòa Phát",
	"VHM": "Vinhomes",
	"VNM": "Vinamilk",
	"TCB": "Ngân hàng Techcombank",
	"MSN": "Tập đoàn Masan",
	"VIC": "Tập đoàn Vingroup",
	"CTG": "Ngân hàng VietinBank",
	"BID": "Ngân hàng BIDV",
}

func standardPolicy() *Policy {
	return &Policy{
		Name:               VariantStandard,
		BasePrices:         copyFloatMap(standardBasePrices),
		CompanyNames:       map[string]string{},
		Exchanges:          map[string]string{},
		FallbackPrice:      DefaultBasePrice,
		UppercaseInput:     true,
		RestrictToUniverse: true,
		ChangePercentRange: FloatRange{Min: -5, Max: 5},
		VolumeRange:        IntRange{Min: 100000, Max: 1000000},

		OverviewVolatilityThreshold: 3,

		Sentiment: SentimentPolicy{
			Rule:   SentimentRatio,
			Ratio:  1.5,
			Labels: SentimentLabels{Bullish: "bullish", Bearish: "bearish", Neutral: "neutral"},
		},
		Volatility: VolatilityAlertPolicy{
			Enabled:         true,
			Threshold:       3,
			SevereThreshold: 5,
			SignedChange:    true,
			ChangeDecimals:  2,
			Template: AlertTemplate{
				IDPrefix:       "volatility",
				Title:          "Biến động cao - {symbol}",
				Description:    "{symbol} có biến động {change}% trong phiên giao dịch",
				Recommendation: "Theo dõi sát diễn biến thị trường và điều chỉnh vị thế phù hợp",
			},
		},
		News: NewsPolicy{
			Enabled:        true,
			MaxSymbols:     3,
			PerSymbol:      2,
			Title:          "Tin tức thị trường",
			IDPrefix:       "news",
			Recommendation: "Đọc chi tiết để đánh giá tác động đến {symbol}",
			Headlines: []string{
				"Cổ phiếu {symbol} có động thái tích cực từ thị trường",
				"{symbol} công bố kết quả kinh doanh khả quan",
				"Nhà đầu tư quan tâm đến triển vọng của {symbol}",
				"Phân tích kỹ thuật cho thấy {symbol} có tín hiệu tích cực",
			},
		},
		Fields: QuoteFields{
			Range:       true,
			RangeFactor: 0.02,
			Source:      "vnstock_mock",
		},
		NewsLimit:       DefaultNewsLimit,
		MaxAlerts:       DefaultMaxAlerts,
		UsageErrorStyle: UsageErrorText,
	}
}

func simplePolicy() *Policy {
	exchanges := make(map[string]string, len(simpleBasePrices))
	for symbol := range simpleBasePrices {
		exchanges[symbol] = "HSX"
	}

	return &Policy{
		Name:               VariantSimple,
		BasePrices:         copyFloatMap(simpleBasePrices),
		CompanyNames:       copyStringMap(companyNames),
		Exchanges:          exchanges,
		FallbackPrice:      DefaultBasePrice,
		ChangePercentRange: FloatRange{Min: -3.5, Max: 4.2},
		VolumeRange:        IntRange{Min: 500000, Max: 2500000},

		OverviewVolatilityThreshold: 2,

		Sentiment: SentimentPolicy{
			Rule:   SentimentMajority,
			Labels: SentimentLabels{Bullish: "tích cực", Bearish: "tiêu cực", Neutral: "trung tính"},
		},
		Volatility: VolatilityAlertPolicy{
			Enabled:         true,
			Threshold:       3,
			SevereThreshold: 5,
			ChangeDecimals:  1,
			Template: AlertTemplate{
				IDPrefix:       "alert",
				Title:          "Biến động mạnh {symbol}",
				Description:    "{symbol} có biến động {change}% trong phiên hôm nay",
				Recommendation: "Theo dõi sát sao và cân nhắc điều chỉnh vị thế",
			},
		},
		PriceTarget: PriceTargetPolicy{
			Enabled:           true,
			BreakoutThreshold: 2.5,
			DropThreshold:     -2.5,
			ChangeDecimals:    1,
			Breakout: AlertTemplate{
				IDPrefix:       "breakout",
				Title:          "Đột phá tăng giá {symbol}",
				Description:    "{symbol} vượt qua mức kháng cự với mức tăng {change}%",
				Recommendation: "Xem xét cơ hội mua thêm nếu có xác nhận",
			},
			Drop: AlertTemplate{
				IDPrefix:       "drop",
				Title:          "Giảm giá mạnh {symbol}",
				Description:    "{symbol} giảm {change}% có thể là cơ hội mua vào",
				Recommendation: "Chờ tín hiệu xác nhận trước khi vào lệnh",
			},
		},
		VolumeSpike: VolumeSpikePolicy{
			Enabled:   true,
			Threshold: 1500000,
			Template: AlertTemplate{
				IDPrefix:       "volume",
				Title:          "Khối lượng tăng đột biến {symbol}",
				Description:    "{symbol} có khối lượng giao dịch cao bất thường",
				Recommendation: "Theo dõi xu hướng giá trong phiên",
			},
		},
		Fields: QuoteFields{
			Name:            true,
			Exchange:        true,
			Currency:        "VND",
			DefaultExchange: "HSX",
		},
		Overview: OverviewExtras{
			TotalVolume:  true,
			MarketStatus: "Đang giao dịch",
			MarketCap:    "Thị trường Việt Nam",
		},
		NewsLimit:       DefaultNewsLimit,
		MaxAlerts:       DefaultMaxAlerts,
		UsageErrorStyle: UsageErrorJSON,
	}
}

var builtinPolicies = map[string]func() *Policy{
	VariantStandard: standardPolicy,
	VariantSimple:   simplePolicy,
}

// VariantNames lists the built-in variants in stable order
func VariantNames() []string {
	names := make([]string, 0, len(builtinPolicies))
	for name := range builtinPolicies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PolicyFor returns a fresh copy of a built-in variant
func PolicyFor(name string) (*Policy, error) {
	if name == "" {
		name = VariantStandard
	}
	build, ok := builtinPolicies[name]
	if !ok {
		return nil, shared.NewServiceError(
			shared.ErrorCategoryConfiguration,
			"UNKNOWN_VARIANT",
			fmt.Sprintf("unknown variant %q (available: %v)", name, VariantNames()),
			"PolicyRegistry",
			"PolicyFor",
			nil,
		)
	}
	return build(), nil
}

// policyFile is the on-disk shape; Base selects the variant that the rest overrides
type policyFile struct {
	Base string `yaml:"base"`
}

// ParsePolicy decodes a YAML policy document on top of its base variant
func ParsePolicy(data []byte) (*Policy, error) {
	var header policyFile
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to decode policy header: %w", err)
	}

	policy, err := PolicyFor(header.Base)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to decode policy: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// LoadPolicyFile reads a YAML policy file
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// Validate rejects policies the generator cannot run
func (p *Policy) Validate() error {
	invalid := func(msg string, args ...interface{}) error {
		return shared.NewServiceError(
			shared.ErrorCategoryValidation,
			"INVALID_POLICY",
			fmt.Sprintf(msg, args...),
			"PolicyRegistry",
			"Validate",
			nil,
		).WithDetails(p.Name)
	}

	if p.ChangePercentRange.Min > p.ChangePercentRange.Max {
		return invalid("change_percent_range min %v exceeds max %v", p.ChangePercentRange.Min, p.ChangePercentRange.Max)
	}
	if p.VolumeRange.Min < 0 || p.VolumeRange.Min > p.VolumeRange.Max {
		return invalid("volume_range [%d, %d] is invalid", p.VolumeRange.Min, p.VolumeRange.Max)
	}
	if p.FallbackPrice <= 0 {
		return invalid("fallback_price must be positive")
	}
	switch p.Sentiment.Rule {
	case SentimentRatio:
		if p.Sentiment.Ratio <= 0 {
			return invalid("sentiment ratio must be positive")
		}
	case SentimentMajority:
	default:
		return invalid("unknown sentiment rule %q", p.Sentiment.Rule)
	}
	if p.MaxAlerts < 0 {
		return invalid("max_alerts must not be negative")
	}
	if p.NewsLimit < 0 {
		return invalid("news_limit must not be negative")
	}
	if v := p.Volatility; v.Enabled {
		if v.Threshold <= 0 {
			return invalid("volatility_alert threshold must be positive")
		}
		if v.SevereThreshold < v.Threshold {
			return invalid("volatility_alert severe_threshold %v is below threshold %v", v.SevereThreshold, v.Threshold)
		}
	}
	if pt := p.PriceTarget; pt.Enabled && pt.DropThreshold > pt.BreakoutThreshold {
		return invalid("price_target drop_threshold %v exceeds breakout_threshold %v", pt.DropThreshold, pt.BreakoutThreshold)
	}
	if p.VolumeSpike.Enabled && p.VolumeSpike.Threshold < 0 {
		return invalid("volume_spike threshold must not be negative")
	}
	if p.News.MaxSymbols < 0 {
		return invalid("news max_symbols must not be negative")
	}
	if p.News.PerSymbol < 0 {
		return invalid("news per_symbol must not be negative")
	}
	if p.News.Enabled && len(p.News.Headlines) == 0 {
		return invalid("news is enabled without headlines")
	}
	switch p.UsageErrorStyle {
	case UsageErrorText, UsageErrorJSON:
	default:
		return invalid("unknown usage_error_style %q", p.UsageErrorStyle)
	}
	return nil
}

// BasePrice returns the base price of symbol and whether it is in the universe
func (p *Policy) BasePrice(symbol string) (float64, bool) {
	price, ok := p.BasePrices[symbol]
	if !ok {
		return p.FallbackPrice, false
	}
	return price, true
}

// Universe returns the known symbols in stable order
func (p *Policy) Universe() []string {
	symbols := make([]string, 0, len(p.BasePrices))
	for symbol := range p.BasePrices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

func copyFloatMap(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStringMap(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
