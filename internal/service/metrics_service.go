package service

import (
	"sync/atomic"
	"time"
)

// IMetricsService accumulates in-process pipeline counters for the
// operational endpoint. Counters reset on restart.
type IMetricsService interface {
	IncSubmitted()
	IncCompleted()
	IncFailed()
	AddChunks(n int)
	ObserveProcessing(d time.Duration)
	Snapshot() map[string]interface{}
}

type metricsService struct {
	submitted       atomic.Int64
	completed       atomic.Int64
	failed          atomic.Int64
	chunks          atomic.Int64
	processingMs    atomic.Int64
	processingCount atomic.Int64
	startedAt       time.Time
}

func NewMetricsService() IMetricsService {
	return &metricsService{startedAt: time.Now()}
}

func (m *metricsService) IncSubmitted() { m.submitted.Add(1) }
func (m *metricsService) IncCompleted() { m.completed.Add(1) }
func (m *metricsService) IncFailed()    { m.failed.Add(1) }
func (m *metricsService) AddChunks(n int) {
	m.chunks.Add(int64(n))
}

func (m *metricsService) ObserveProcessing(d time.Duration) {
	m.processingMs.Add(d.Milliseconds())
	m.processingCount.Add(1)
}

func (m *metricsService) Snapshot() map[string]interface{} {
	var avgMs int64
	if count := m.processingCount.Load(); count > 0 {
		avgMs = m.processingMs.Load() / count
	}
	return map[string]interface{}{
		"documents_submitted":    m.submitted.Load(),
		"documents_completed":    m.completed.Load(),
		"documents_failed":       m.failed.Load(),
		"chunks_created":         m.chunks.Load(),
		"avg_processing_time_ms": avgMs,
		"uptime_seconds":         int64(time.Since(m.startedAt).Seconds()),
	}
}
