package authguard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a guard counter or histogram.
type MetricID uint16

const (
	// MetricCheckAuthSuccess counts page-load and explicit checks that found a valid session.
	MetricCheckAuthSuccess MetricID = iota
	// MetricCheckAuthFailure counts checks that failed closed.
	MetricCheckAuthFailure
	// MetricAbsentCredential counts checks failed by a missing token or profile.
	MetricAbsentCredential
	// MetricCorruptProfile counts checks failed by a malformed profile.
	MetricCorruptProfile
	// MetricTokenRejected counts checks failed by a malformed or expired token.
	MetricTokenRejected
	// MetricStorageUnavailable counts checks failed by backend I/O errors.
	MetricStorageUnavailable
	// MetricFocusCheck counts focus re-validations that found a stored token.
	MetricFocusCheck
	// MetricFocusExpired counts focus re-validations that ended the session.
	MetricFocusExpired
	// MetricActivityReset counts inactivity countdown restarts caused by input.
	MetricActivityReset
	// MetricInactivityTimeout counts sessions ended by the inactivity countdown.
	MetricInactivityTimeout
	// MetricLogoutRequested counts logout confirmations shown.
	MetricLogoutRequested
	// MetricLogoutDeclined counts logout confirmations the user declined.
	MetricLogoutDeclined
	// MetricLogout counts store teardowns followed by a redirect.
	MetricLogout
	// MetricCrossTabLogout counts sessions ended because another page cleared the store.
	MetricCrossTabLogout
	// MetricClearFailure counts teardowns where at least one key removal failed.
	MetricClearFailure
	// MetricAuditFlushTimeout counts redirects that left audit events queued.
	MetricAuditFlushTimeout
	// MetricCheckLatency is the CheckAuth latency histogram.
	MetricCheckLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// latencyHistogram keeps per-bucket counts and the running sum in
// nanoseconds so exporters can publish a real _sum.
type latencyHistogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free guard counters. A nil *Metrics is a valid, disabled
// instance.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	checkLatency  latencyHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
// Histograms hold per-bucket (not cumulative) counts; HistogramSums the total
// observed duration of each histogram.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics creates a Metrics instance from cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram for id. Only [MetricCheckLatency] has a
// histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricCheckLatency {
		return
	}
	if d < 0 {
		d = 0
	}

	atomic.AddUint64(&m.checkLatency.buckets[bucketIndex(d)], 1)
	atomic.AddUint64(&m.checkLatency.sumNanos, uint64(d))
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, and the latency histogram when enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricCheckLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.checkLatency.buckets[i])
		}
		s.Histograms[MetricCheckLatency] = buckets
		s.HistogramSums[MetricCheckLatency] = time.Duration(atomic.LoadUint64(&m.checkLatency.sumNanos))
	}

	return s
}

// Bucket upper bounds in milliseconds. Reads against a remote backend land in
// the upper buckets; in-process reads stay in the first.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
