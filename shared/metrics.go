package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ServiceMetrics tracks performance and success metrics for services
type ServiceMetrics struct {
	ServiceName           string                 `json:"service_name"`
	TotalRequests         int64                  `json:"total_requests"`
	SuccessfulRequests    int64                  `json:"successful_requests"`
	FailedRequests        int64                  `json:"failed_requests"`
	TotalProcessingTime   time.Duration          `json:"total_processing_time"`
	AverageProcessingTime time.Duration          `json:"average_processing_time"`
	LastUpdated           time.Time              `json:"last_updated"`
	CustomMetrics         map[string]interface{} `json:"custom_metrics"`
	PerformanceMetrics    *PerformanceMetrics    `json:"performance_metrics"`
	mutex                 sync.RWMutex
}

// NewServiceMetrics creates a new metrics tracker for a service
func NewServiceMetrics(serviceName string) *ServiceMetrics {
	return &ServiceMetrics{
		ServiceName:        serviceName,
		LastUpdated:        time.Now(),
		CustomMetrics:      make(map[string]interface{}),
		PerformanceMetrics: NewPerformanceMetrics(),
	}
}

// RecordRequest records a request with its success status and processing time
func (m *ServiceMetrics) RecordRequest(success bool, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests++
	m.TotalProcessingTime += processingTime
	m.AverageProcessingTime = time.Duration(int64(m.TotalProcessingTime) / m.TotalRequests)

	if success {
		m.SuccessfulRequests++
	} else {
		m.FailedRequests++
	}

	m.LastUpdated = time.Now()

	if m.PerformanceMetrics != nil {
		m.PerformanceMetrics.RecordProcessingTime(processingTime)
	}
}

// GetSuccessRate returns the success rate as a percentage
func (m *ServiceMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.successRate()
}

func (m *ServiceMetrics) successRate() float64 {
	if m.TotalRequests == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRequests) / float64(m.TotalRequests) * 100.0
}

// AddToCounter adds delta to a custom counter metric
func (m *ServiceMetrics) AddToCounter(key string, delta int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if counter, ok := m.CustomMetrics[key].(int64); ok {
		m.CustomMetrics[key] = counter + delta
	} else {
		m.CustomMetrics[key] = delta
	}

	m.LastUpdated = time.Now()
}

// IncrementCustomCounter increments a custom counter metric
func (m *ServiceMetrics) IncrementCustomCounter(key string) {
	m.AddToCounter(key, 1)
}

// GetCustomMetric gets a custom metric value
func (m *ServiceMetrics) GetCustomMetric(key string) (interface{}, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	value, exists := m.CustomMetrics[key]
	return value, exists
}

// MetricsSnapshot is a point-in-time copy of ServiceMetrics, safe to serialize
type MetricsSnapshot struct {
	ServiceName           string                 `json:"service_name"`
	TotalRequests         int64                  `json:"total_requests"`
	SuccessfulRequests    int64                  `json:"successful_requests"`
	FailedRequests        int64                  `json:"failed_requests"`
	SuccessRate           float64                `json:"success_rate"`
	AverageProcessingTime time.Duration          `json:"average_processing_time"`
	P95ProcessingTime     time.Duration          `json:"p95_processing_time"`
	LastUpdated           time.Time              `json:"last_updated"`
	CustomMetrics         map[string]interface{} `json:"custom_metrics"`
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *ServiceMetrics) GetSnapshot() MetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	customMetricsCopy := make(map[string]interface{}, len(m.CustomMetrics))
	for k, v := range m.CustomMetrics {
		customMetricsCopy[k] = v
	}

	return MetricsSnapshot{
		ServiceName:           m.ServiceName,
		TotalRequests:         m.TotalRequests,
		SuccessfulRequests:    m.SuccessfulRequests,
		FailedRequests:        m.FailedRequests,
		SuccessRate:           m.successRate(),
		AverageProcessingTime: m.AverageProcessingTime,
		P95ProcessingTime:     m.PerformanceMetrics.GetPerformanceSnapshot().P95ProcessingTime,
		LastUpdated:           m.LastUpdated,
		CustomMetrics:         customMetricsCopy,
	}
}

// LogSummary logs a metrics summary at debug level
func (m *ServiceMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"service_name":            snapshot.ServiceName,
		"total_requests":          snapshot.TotalRequests,
		"successful_requests":     snapshot.SuccessfulRequests,
		"failed_requests":         snapshot.FailedRequests,
		"success_rate":            snapshot.SuccessRate,
		"average_processing_time": snapshot.AverageProcessingTime,
		"p95_processing_time":     snapshot.P95ProcessingTime,
		"custom_metrics":          snapshot.CustomMetrics,
	}).Debug("Service metrics summary")
}

// Reset resets all metrics to zero
func (m *ServiceMetrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRequests = 0
	m.SuccessfulRequests = 0
	m.FailedRequests = 0
	m.TotalProcessingTime = 0
	m.AverageProcessingTime = 0
	m.LastUpdated = time.Now()
	m.CustomMetrics = make(map[string]interface{})
	m.PerformanceMetrics = NewPerformanceMetrics()

	logrus.WithField("service_name", m.ServiceName).Info("Service metrics reset")
}

const maxPerformanceSamples = 1000

// PerformanceMetrics tracks detailed performance measurements
type PerformanceMetrics struct {
	MinProcessingTime time.Duration `json:"min_processing_time"`
	MaxProcessingTime time.Duration `json:"max_processing_time"`
	P95ProcessingTime time.Duration `json:"p95_processing_time"`
	P99ProcessingTime time.Duration `json:"p99_processing_time"`
	mutex             sync.RWMutex
	processingTimes   []time.Duration
}

// NewPerformanceMetrics creates a new performance metrics tracker
func NewPerformanceMetrics() *PerformanceMetrics {
	return &PerformanceMetrics{
		processingTimes: make([]time.Duration, 0, maxPerformanceSamples),
	}
}

// RecordProcessingTime records a processing time and updates performance metrics
func (pm *PerformanceMetrics) RecordProcessingTime(duration time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if pm.MinProcessingTime == 0 || duration < pm.MinProcessingTime {
		pm.MinProcessingTime = duration
	}
	if duration > pm.MaxProcessingTime {
		pm.MaxProcessingTime = duration
	}

	// keep the last maxPerformanceSamples samples
	if len(pm.processingTimes) >= maxPerformanceSamples {
		pm.processingTimes = pm.processingTimes[1:]
	}
	pm.processingTimes = append(pm.processingTimes, duration)

	pm.calculatePercentiles()
}

func (pm *PerformanceMetrics) calculatePercentiles() {
	if len(pm.processingTimes) == 0 {
		return
	}

	times := make([]time.Duration, len(pm.processingTimes))
	copy(times, pm.processingTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	p95Index := int(float64(len(times)) * 0.95)
	p99Index := int(float64(len(times)) * 0.99)

	if p95Index < len(times) {
		pm.P95ProcessingTime = times[p95Index]
	}
	if p99Index < len(times) {
		pm.P99ProcessingTime = times[p99Index]
	}
}

// GetPerformanceSnapshot returns a thread-safe snapshot of performance metrics
func (pm *PerformanceMetrics) GetPerformanceSnapshot() PerformanceMetrics {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	return PerformanceMetrics{
		MinProcessingTime: pm.MinProcessingTime,
		MaxProcessingTime: pm.MaxProcessingTime,
		P95ProcessingTime: pm.P95ProcessingTime,
		P99ProcessingTime: pm.P99ProcessingTime,
	}
}
