package services

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"

	"github.com/fenilmodi00/vnmarket/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// alertIDSource issues alert identifiers whose disambiguator is drawn from the
// generator's random source, so seeded runs reproduce the same IDs.
type alertIDSource struct {
	reader io.Reader
}

func newAlertIDSource(reader io.Reader) *alertIDSource {
	return &alertIDSource{reader: reader}
}

func (s *alertIDSource) next(parts ...interface{}) string {
	id, err := uuid.NewRandomFromReader(s.reader)
	if err != nil {
		logrus.WithError(err).Warn("Falling back to crypto/rand for alert id")
		id = uuid.New()
	}

	prefix := ""
	for _, part := range parts {
		prefix += fmt.Sprintf("%v_", part)
	}
	return prefix + id.String()
}

// EvaluateQuoteAlerts applies the policy's threshold rules to one quote.
// Rules are independent; every rule that matches adds an alert.
func EvaluateQuoteAlerts(quote models.Quote, policy *Policy, ids *alertIDSource, timestamp string) []models.Alert {
	var alerts []models.Alert
	changePercent := quote.ChangePercent
	magnitude := math.Abs(changePercent)

	if rule := policy.Volatility; rule.Enabled && magnitude > rule.Threshold {
		severity := models.SeverityMedium
		if magnitude > rule.SevereThreshold {
			severity = models.SeverityHigh
		}
		impact := models.ImpactNegative
		if changePercent > 0 {
			impact = models.ImpactPositive
		}

		shown := magnitude
		if rule.SignedChange {
			shown = changePercent
		}

		alerts = append(alerts, newTemplatedAlert(
			ids, models.AlertTypeHighVolatility, quote.Symbol, rule.Template,
			formatChange(shown, rule.ChangeDecimals), severity, impact, timestamp,
		))
	}

	if rule := policy.PriceTarget; rule.Enabled {
		if changePercent > rule.BreakoutThreshold {
			alerts = append(alerts, newTemplatedAlert(
				ids, models.AlertTypePriceTarget, quote.Symbol, rule.Breakout,
				formatChange(changePercent, rule.ChangeDecimals), models.SeverityMedium, models.ImpactPositive, timestamp,
			))
		} else if changePercent < rule.DropThreshold {
			alerts = append(alerts, newTemplatedAlert(
				ids, models.AlertTypePriceTarget, quote.Symbol, rule.Drop,
				formatChange(magnitude, rule.ChangeDecimals), models.SeverityMedium, models.ImpactNeutral, timestamp,
			))
		}
	}

	if rule := policy.VolumeSpike; rule.Enabled && quote.Volume > rule.Threshold {
		alerts = append(alerts, newTemplatedAlert(
			ids, models.AlertTypeVolumeSpike, quote.Symbol, rule.Template,
			"", models.SeverityLow, models.ImpactNeutral, timestamp,
		))
	}

	return alerts
}

func newTemplatedAlert(ids *alertIDSource, alertType models.AlertType, symbol string, tpl AlertTemplate,
	change string, severity models.Severity, impact models.Impact, timestamp string) models.Alert {
	return models.Alert{
		ID:             ids.next(tpl.IDPrefix, symbol),
		Type:           alertType,
		Symbol:         symbol,
		Title:          renderTemplate(tpl.Title, symbol, change),
		Description:    renderTemplate(tpl.Description, symbol, change),
		Severity:       severity,
		Timestamp:      timestamp,
		Impact:         impact,
		Recommendation: renderTemplate(tpl.Recommendation, symbol, change),
	}
}

// GenerateNewsAlerts emits templated news_impact alerts for the leading symbols.
// Each of the first MaxSymbols symbols gets min(PerSymbol, limit) items.
func GenerateNewsAlerts(symbols []string, policy *Policy, limit int, rng *rand.Rand, ids *alertIDSource, timestamp string) []models.Alert {
	news := policy.News
	if !news.Enabled || len(news.Headlines) == 0 || limit <= 0 {
		return nil
	}

	if len(symbols) > news.MaxSymbols {
		symbols = symbols[:news.MaxSymbols]
	}

	perSymbol := news.PerSymbol
	if limit < perSymbol {
		perSymbol = limit
	}

	alerts := make([]models.Alert, 0, len(symbols)*perSymbol)
	for _, symbol := range symbols {
		for i := 0; i < perSymbol; i++ {
			headline := news.Headlines[rng.Intn(len(news.Headlines))]

			alerts = append(alerts, models.Alert{
				ID:             ids.next(news.IDPrefix, symbol, i),
				Type:           models.AlertTypeNewsImpact,
				Symbol:         symbol,
				Title:          renderTemplate(news.Title, symbol, ""),
				Description:    renderTemplate(headline, symbol, ""),
				Severity:       models.SeverityMedium,
				Timestamp:      timestamp,
				Impact:         models.ImpactNeutral,
				Recommendation: renderTemplate(news.Recommendation, symbol, ""),
			})
		}
	}
	return alerts
}

// SortAndCapAlerts orders alerts by severity, highest first, keeping the original
// order among equal severities, then truncates to maxAlerts.
func SortAndCapAlerts(alerts []models.Alert, maxAlerts int) []models.Alert {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
	})

	if maxAlerts >= 0 && len(alerts) > maxAlerts {
		alerts = alerts[:maxAlerts]
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	return alerts
}
