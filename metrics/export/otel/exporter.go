package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil status source")
)

type statusSource interface {
	Status() authguard.Status
}

type observedSeries struct {
	id    authguard.MetricID
	attrs metric.MeasurementOption
}

type observedFamily struct {
	instrument metric.Int64ObservableCounter
	series     []observedSeries
}

type observedHistogram struct {
	id      authguard.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableCounter
}

// OTelExporter observes one guard. Several exporters may share a meter; the
// guard_id attribute tells their series apart.
type OTelExporter struct {
	source       statusSource
	guardAttr    attribute.KeyValue
	registration metric.Registration
	families     []observedFamily
	histograms   []observedHistogram
	state        metric.Int64ObservableGauge
	terminated   metric.Int64ObservableGauge
	auditEvents  metric.Int64ObservableCounter
}

// NewOTelExporter registers observable instruments reading from guard.
func NewOTelExporter(meter metric.Meter, guard *authguard.Guard) (*OTelExporter, error) {
	if guard == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, guard)
}

func NewOTelExporterFromSource(meter metric.Meter, source statusSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:     source,
		guardAttr:  attribute.String(internaldefs.GuardLabel, source.Status().GuardID),
		families:   make([]observedFamily, 0, len(internaldefs.CounterFamilies)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterFamilies)+len(internaldefs.HistogramDefs)*10+3)

	for _, fam := range internaldefs.CounterFamilies {
		ins, err := meter.Int64ObservableCounter(fam.Name, metric.WithDescription(fam.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", fam.Name, err)
		}
		of := observedFamily{instrument: ins, series: make([]observedSeries, 0, len(fam.Series))}
		for _, s := range fam.Series {
			of.series = append(of.series, observedSeries{id: s.ID, attrs: exporter.attrs(fam.Label, s.Value)})
		}
		exporter.families = append(exporter.families, of)
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		sumName := def.Name + "_sum"
		sumIns, err := meter.Float64ObservableCounter(sumName, metric.WithDescription("Histogram total observed seconds."), metric.WithUnit("s"))
		if err != nil {
			return nil, fmt.Errorf("create histogram sum counter %s: %w", sumName, err)
		}
		h.sum = sumIns
		observables = append(observables, countIns, sumIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	var err error
	if exporter.state, err = meter.Int64ObservableGauge(internaldefs.StateGaugeName, metric.WithDescription(internaldefs.StateGaugeHelp)); err != nil {
		return nil, fmt.Errorf("create session state gauge: %w", err)
	}
	if exporter.terminated, err = meter.Int64ObservableGauge(internaldefs.TerminatedGaugeName, metric.WithDescription(internaldefs.TerminatedGaugeHelp)); err != nil {
		return nil, fmt.Errorf("create terminated gauge: %w", err)
	}
	if exporter.auditEvents, err = meter.Int64ObservableCounter(internaldefs.AuditEventsName, metric.WithDescription(internaldefs.AuditEventsHelp)); err != nil {
		return nil, fmt.Errorf("create audit events counter: %w", err)
	}
	observables = append(observables, exporter.state, exporter.terminated, exporter.auditEvents)

	registration, err := meter.RegisterCallback(exporter.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

func (e *OTelExporter) attrs(label, value string) metric.MeasurementOption {
	if label == "" {
		return metric.WithAttributes(e.guardAttr)
	}
	return metric.WithAttributes(e.guardAttr, attribute.String(label, value))
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	st := e.source.Status()

	for _, want := range internaldefs.States {
		observer.ObserveInt64(e.state, internaldefs.StateValue(st.State, want), e.attrs(internaldefs.StateLabel, want.String()))
	}
	observer.ObserveInt64(e.terminated, internaldefs.BoolValue(st.Terminated), e.attrs("", ""))
	observer.ObserveInt64(e.auditEvents, int64(st.AuditDelivered), e.attrs(internaldefs.AuditEventsLabel, "delivered"))
	observer.ObserveInt64(e.auditEvents, int64(st.AuditDropped), e.attrs(internaldefs.AuditEventsLabel, "dropped"))

	if len(st.Metrics.Counters) == 0 && len(st.Metrics.Histograms) == 0 {
		return nil
	}

	for _, fam := range e.families {
		for _, s := range fam.series {
			observer.ObserveInt64(fam.instrument, int64(st.Metrics.Counters[s.id]), s.attrs)
		}
	}
	guardOnly := e.attrs("", "")
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(st.Metrics.Histograms[h.id]))
		for i := 0; i < len(cumulative); i++ {
			observer.ObserveInt64(h.buckets[i], int64(cumulative[i]), guardOnly)
		}
		observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]), guardOnly)
		observer.ObserveFloat64(h.sum, st.Metrics.HistogramSums[h.id].Seconds(), guardOnly)
	}
	return nil
}

func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
