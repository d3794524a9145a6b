package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/authguard"
	"github.com/MrEthical07/authguard/metrics/export/internaldefs"
)

type statusSource interface {
	Status() authguard.Status
}

// PrometheusExporter renders guard metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	sources []statusSource
}

// NewPrometheusExporter creates an exporter over one or more guards. Every
// series carries the guard_id label, so the guards of several pages can be
// served from one endpoint.
func NewPrometheusExporter(guards ...*authguard.Guard) *PrometheusExporter {
	sources := make([]statusSource, 0, len(guards))
	for _, g := range guards {
		if g != nil {
			sources = append(sources, g)
		}
	}
	return &PrometheusExporter{sources: sources}
}

// NewPrometheusExporterFromSource creates an exporter from custom status
// sources.
func NewPrometheusExporterFromSource(sources ...statusSource) *PrometheusExporter {
	return &PrometheusExporter{sources: sources}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
// Counter and histogram families are omitted when no guard has metrics
// enabled; the status gauges are always present.
func (p *PrometheusExporter) Render() string {
	if p == nil || len(p.sources) == 0 {
		return ""
	}

	statuses := make([]authguard.Status, len(p.sources))
	counting := false
	for i, src := range p.sources {
		statuses[i] = src.Status()
		if len(statuses[i].Metrics.Counters) > 0 || len(statuses[i].Metrics.Histograms) > 0 {
			counting = true
		}
	}

	var b strings.Builder
	b.Grow(4096 * len(statuses))

	writeHeader(&b, internaldefs.StateGaugeName, internaldefs.StateGaugeHelp, "gauge")
	for _, st := range statuses {
		for _, want := range internaldefs.States {
			writeSample(&b, internaldefs.StateGaugeName, st.GuardID, internaldefs.StateLabel, want.String(),
				strconv.FormatInt(internaldefs.StateValue(st.State, want), 10))
		}
	}

	writeHeader(&b, internaldefs.TerminatedGaugeName, internaldefs.TerminatedGaugeHelp, "gauge")
	for _, st := range statuses {
		writeSample(&b, internaldefs.TerminatedGaugeName, st.GuardID, "", "",
			strconv.FormatInt(internaldefs.BoolValue(st.Terminated), 10))
	}

	writeHeader(&b, internaldefs.AuditEventsName, internaldefs.AuditEventsHelp, "counter")
	for _, st := range statuses {
		writeSample(&b, internaldefs.AuditEventsName, st.GuardID, internaldefs.AuditEventsLabel, "delivered",
			strconv.FormatUint(st.AuditDelivered, 10))
		writeSample(&b, internaldefs.AuditEventsName, st.GuardID, internaldefs.AuditEventsLabel, "dropped",
			strconv.FormatUint(st.AuditDropped, 10))
	}

	if !counting {
		return b.String()
	}

	for _, fam := range internaldefs.CounterFamilies {
		writeHeader(&b, fam.Name, fam.Help, "counter")
		for _, st := range statuses {
			for _, s := range fam.Series {
				writeSample(&b, fam.Name, st.GuardID, fam.Label, s.Value,
					strconv.FormatUint(st.Metrics.Counters[s.ID], 10))
			}
		}
	}

	for _, def := range internaldefs.HistogramDefs {
		writeHeader(&b, def.Name, def.Help, "histogram")
		for _, st := range statuses {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(st.Metrics.Histograms[def.ID]))
			writeHistogram(&b, def.Name, st.GuardID, cumulative, st.Metrics.HistogramSums[def.ID].Seconds())
		}
	}

	return b.String()
}

func writeHeader(b *strings.Builder, name, help, kind string) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(kind)
	b.WriteByte('\n')
}

// writeSample writes name{guard_id="..",label="value"} v. An empty label
// leaves only the guard label.
func writeSample(b *strings.Builder, name, guardID, label, value, v string) {
	b.WriteString(name)
	b.WriteString("{")
	writeLabel(b, internaldefs.GuardLabel, guardID)
	if label != "" {
		b.WriteByte(',')
		writeLabel(b, label, value)
	}
	b.WriteString("} ")
	b.WriteString(v)
	b.WriteByte('\n')
}

func writeLabel(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString("=\"")
	b.WriteString(escapeLabel(value))
	b.WriteByte('"')
}

func writeHistogram(b *strings.Builder, name, guardID string, cumulative [8]uint64, sumSeconds float64) {
	for i, le := range internaldefs.HistogramBounds {
		writeSample(b, name+"_bucket", guardID, "le", le, strconv.FormatUint(cumulative[i], 10))
	}
	count := strconv.FormatUint(cumulative[len(cumulative)-1], 10)
	writeSample(b, name+"_count", guardID, "", "", count)
	writeSample(b, name+"_sum", guardID, "", "", strconv.FormatFloat(sumSeconds, 'g', -1, 64))
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}
