package models

type AlertType string

const (
	AlertTypeHighVolatility AlertType = "high_volatility"
	AlertTypePriceTarget    AlertType = "price_target"
	AlertTypeVolumeSpike    AlertType = "volume_spike"
	AlertTypeNewsImpact     AlertType = "news_impact"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for sorting: high=3, medium=2, low=1, unknown=0
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// Alert is a templated notification raised for a quote that crossed a threshold
type Alert struct {
	ID             string    `json:"id"`
	Type           AlertType `json:"type"`
	Symbol         string    `json:"symbol"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Severity       Severity  `json:"severity"`
	Timestamp      string    `json:"timestamp"`
	Impact         Impact    `json:"impact"`
	Recommendation string    `json:"recommendation"`
}
