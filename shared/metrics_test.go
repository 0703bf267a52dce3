package shared

import (
	"bytes"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestServiceMetrics(t *testing.T) {
	metrics := NewServiceMetrics("test")

	metrics.RecordRequest(true, 10*time.Millisecond)
	metrics.RecordRequest(true, 20*time.Millisecond)
	metrics.RecordRequest(false, 30*time.Millisecond)
	metrics.AddToCounter("symbols_requested", 5)
	metrics.AddToCounter("symbols_requested", 2)
	metrics.IncrementCustomCounter("cache_hits")

	snapshot := metrics.GetSnapshot()
	assert.Equal(t, int64(3), snapshot.TotalRequests)
	assert.Equal(t, int64(2), snapshot.SuccessfulRequests)
	assert.Equal(t, int64(1), snapshot.FailedRequests)
	assert.InDelta(t, 66.67, snapshot.SuccessRate, 0.01)
	assert.Equal(t, 20*time.Millisecond, snapshot.AverageProcessingTime)
	assert.Equal(t, int64(7), snapshot.CustomMetrics["symbols_requested"])

	value, ok := metrics.GetCustomMetric("cache_hits")
	assert.True(t, ok)
	assert.Equal(t, int64(1), value)

	// the snapshot is a copy
	snapshot.CustomMetrics["cache_hits"] = int64(99)
	value, _ = metrics.GetCustomMetric("cache_hits")
	assert.Equal(t, int64(1), value)

	metrics.Reset()
	assert.Equal(t, int64(0), metrics.GetSnapshot().TotalRequests)
	assert.Equal(t, 0.0, metrics.GetSuccessRate())
}

func TestPerformanceMetrics(t *testing.T) {
	pm := NewPerformanceMetrics()
	for i := 1; i <= 100; i++ {
		pm.RecordProcessingTime(time.Duration(i) * time.Millisecond)
	}

	snapshot := pm.GetPerformanceSnapshot()
	assert.Equal(t, time.Millisecond, snapshot.MinProcessingTime)
	assert.Equal(t, 100*time.Millisecond, snapshot.MaxProcessingTime)
	assert.Equal(t, 96*time.Millisecond, snapshot.P95ProcessingTime)
	assert.Equal(t, 100*time.Millisecond, snapshot.P99ProcessingTime)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetOutput(logrus.StandardLogger().Out)
	defer logrus.SetLevel(logrus.GetLevel())
	defer logrus.SetFormatter(logrus.StandardLogger().Formatter)

	var buf bytes.Buffer
	SetupLogging(LoggingConfig{Level: "info", Format: "json"}, &buf)
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	logrus.WithField("component", "test").Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"component":"test"`)

	buf.Reset()
	SetupLogging(LoggingConfig{Level: "loud"}, &buf)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	assert.Contains(t, buf.String(), "Invalid LOG_LEVEL value: loud")
}

func TestLoggingConfigDefaults(t *testing.T) {
	cfg := LoggingConfig{}
	cfg.ValidateAndApplyDefaults()
	assert.Equal(t, NewDefaultLoggingConfig(), cfg)
}
