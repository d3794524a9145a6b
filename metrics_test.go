package authguard

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricCheckAuthSuccess)

	if got := m.Value(MetricCheckAuthSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricCheckAuthSuccess)
	m.Inc(MetricCheckAuthSuccess)
	m.Inc(MetricCheckAuthSuccess)

	if got := m.Value(MetricCheckAuthSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricActivityReset)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricActivityReset); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricCheckLatency, d)
	}

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricCheckLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}

	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}

	var total time.Duration
	for _, d := range observations {
		total += d
	}
	if got := snap.HistogramSums[MetricCheckLatency]; got != total {
		t.Fatalf("expected latency sum %v, got %v", total, got)
	}
}

func TestMetricsNegativeLatencyCountsAsZero(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricCheckLatency, -time.Second)

	snap := m.Snapshot()
	if snap.Histograms[MetricCheckLatency][0] != 1 || snap.HistogramSums[MetricCheckLatency] != 0 {
		t.Fatalf("negative duration must land in the first bucket with no sum, got %v / %v",
			snap.Histograms[MetricCheckLatency], snap.HistogramSums[MetricCheckLatency])
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Inc(MetricCheckAuthSuccess)
	m.Inc(MetricCheckAuthFailure)
	m.Inc(MetricCheckAuthFailure)
	m.Observe(MetricCheckLatency, 2*time.Millisecond)

	snap := m.Snapshot()

	if snap.Counters[MetricCheckAuthSuccess] != 1 {
		t.Fatalf("expected MetricCheckAuthSuccess=1 got %d", snap.Counters[MetricCheckAuthSuccess])
	}
	if snap.Counters[MetricCheckAuthFailure] != 2 {
		t.Fatalf("expected MetricCheckAuthFailure=2 got %d", snap.Counters[MetricCheckAuthFailure])
	}
	if len(snap.Histograms[MetricCheckLatency]) != 8 {
		t.Fatalf("expected histogram length 8")
	}
	if snap.Histograms[MetricCheckLatency][0] != 1 {
		t.Fatalf("expected first histogram bucket=1 got %d", snap.Histograms[MetricCheckLatency][0])
	}
}

func TestMetricsLatencyOnlyForCheck(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	m.Observe(MetricFocusCheck, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricFocusCheck]; ok {
		t.Fatalf("unexpected histogram for counter metric")
	}
	if _, ok := snap.Counters[MetricCheckLatency]; ok {
		t.Fatalf("latency histogram must not appear among counters")
	}
}

func TestNilMetricsIsDisabled(t *testing.T) {
	var m *Metrics
	m.Inc(MetricLogout)
	m.Observe(MetricCheckLatency, time.Second)

	if m.Enabled() || m.LatencyEnabled() {
		t.Fatalf("nil metrics must report disabled")
	}
	if len(m.Snapshot().Counters) != 0 {
		t.Fatalf("expected empty snapshot")
	}
}

func TestGuardMetricsFollowTransitions(t *testing.T) {
	h := newGuardHarness(t, nil)
	h.seedValid(t)

	h.guard.Dispatch(context.Background(), Event{Kind: EventPageLoad})
	h.guard.Dispatch(context.Background(), Event{Kind: EventPointerMove})
	h.guard.Dispatch(context.Background(), Event{Kind: EventKeyDown, Key: "l", Ctrl: true})

	snap := h.guard.MetricsSnapshot()
	if snap.Counters[MetricCheckAuthSuccess] != 1 {
		t.Fatalf("expected one successful check, got %d", snap.Counters[MetricCheckAuthSuccess])
	}
	if snap.Counters[MetricActivityReset] != 1 {
		t.Fatalf("expected one activity reset, got %d", snap.Counters[MetricActivityReset])
	}
	if snap.Counters[MetricLogoutRequested] != 1 || snap.Counters[MetricLogout] != 1 {
		t.Fatalf("expected confirmed logout counters, got %+v", snap.Counters)
	}
}
