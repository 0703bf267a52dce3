package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fenilmodi00/vnmarket/models"
	"github.com/fenilmodi00/vnmarket/shared"
	"github.com/sirupsen/logrus"
)

const snapshotServiceName = "Snapshot_Service"

// SnapshotService generates mock Vietnamese market snapshots.
// Randomness and time are injected so that a seeded service with a pinned
// clock produces byte-identical snapshots for identical input.
type SnapshotService struct {
	rng            *rand.Rand
	clock          func() time.Time
	mutex          sync.Mutex
	serviceMetrics *shared.ServiceMetrics
}

// NewSnapshotService creates a snapshot service seeded with seed. A nil clock uses time.Now.
func NewSnapshotService(seed int64, clock func() time.Time) *SnapshotService {
	if clock == nil {
		clock = time.Now
	}
	return &SnapshotService{
		rng:            rand.New(rand.NewSource(seed)),
		clock:          clock,
		serviceMetrics: shared.NewServiceMetrics(snapshotServiceName),
	}
}

// Generate builds a snapshot for rawSymbols under policy. Symbols that fail
// normalization are logged and skipped; the rest of the batch is unaffected.
func (s *SnapshotService) Generate(policy *Policy, rawSymbols []string) (snapshot *models.MarketSnapshot) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	startTime := time.Now()
	now := s.clock()
	timestamp := now.Format(TimestampLayout)
	snapshot = models.NewMarketSnapshot(timestamp, policy.Sentiment.Labels.Neutral)
	success := true

	defer func() {
		if r := recover(); r != nil {
			success = false
			logrus.WithFields(logrus.Fields{
				"component": "SnapshotService",
				"variant":   policy.Name,
				"panic":     fmt.Sprint(r),
			}).Error("General error in snapshot generation, returning partial result")
		}
		s.serviceMetrics.RecordRequest(success, time.Since(startTime))
	}()

	s.serviceMetrics.AddToCounter("symbols_requested", int64(len(rawSymbols)))

	batch := shared.ProcessBatchWithIsolation(snapshotServiceName, rawSymbols, func(raw string) (models.Quote, error) {
		symbol, err := NormalizeSymbol(raw, policy)
		if err != nil {
			return models.Quote{}, err
		}
		return SynthesizeQuote(symbol, policy, s.rng, now), nil
	})

	for _, failed := range batch.FailedItems {
		logrus.WithFields(logrus.Fields{
			"component": "SnapshotService",
			"variant":   policy.Name,
			"symbol":    failed.OriginalData,
		}).Warnf("Error generating data for %q: %v", failed.OriginalData, failed.Error)
	}
	s.serviceMetrics.AddToCounter("symbols_skipped", int64(len(batch.FailedItems)))

	quotes := batch.SuccessfulItems
	snapshot.MarketData = quotes
	snapshot.Overview = BuildOverview(quotes, policy, timestamp)

	ids := newAlertIDSource(s.rng)
	alerts := make([]models.Alert, 0)
	for _, quote := range quotes {
		alerts = append(alerts, EvaluateQuoteAlerts(quote, policy, ids, timestamp)...)
	}

	symbols := make([]string, 0, len(quotes))
	for _, quote := range quotes {
		symbols = append(symbols, quote.Symbol)
	}
	alerts = append(alerts, GenerateNewsAlerts(symbols, policy, policy.NewsLimit, s.rng, ids, timestamp)...)

	generated := len(alerts)
	snapshot.Alerts = SortAndCapAlerts(alerts, policy.MaxAlerts)

	s.serviceMetrics.AddToCounter("alerts_emitted", int64(len(snapshot.Alerts)))
	s.serviceMetrics.AddToCounter("alerts_truncated", int64(generated-len(snapshot.Alerts)))

	logrus.WithFields(logrus.Fields{
		"component": "SnapshotService",
		"variant":   policy.Name,
		"quotes":    len(quotes),
		"alerts":    len(snapshot.Alerts),
		"skipped":   len(batch.FailedItems),
	}).Debug("Snapshot generated")

	return snapshot
}

// GetServiceMetrics returns the current service metrics
func (s *SnapshotService) GetServiceMetrics() *shared.ServiceMetrics {
	return s.serviceMetrics
}

// LogMetricsSummary logs comprehensive metrics summary
func (s *SnapshotService) LogMetricsSummary() {
	if s.serviceMetrics != nil {
		s.serviceMetrics.LogSummary()
	}
}
