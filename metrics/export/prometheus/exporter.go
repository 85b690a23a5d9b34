package prometheus

import (
	"net/http"
	"strings"

	sentinel "github.com/sentinelforge/sentinel"
	"github.com/sentinelforge/sentinel/metrics/export/internaldefs"
)

// metricsSource is the slice of the engine the exporter reads.
type metricsSource interface {
	MetricsSnapshot() sentinel.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders a metrics snapshot in the text exposition
// format. It holds no state beyond the source and is safe for concurrent
// use.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter builds an exporter reading from an engine.
func NewPrometheusExporter(engine *sentinel.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource builds an exporter from any snapshot
// source, which keeps tests independent of a full engine.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler serving the exposition on GET.
func (e *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render produces the full exposition document.
func (e *PrometheusExporter) Render() string {
	var b strings.Builder

	if e == nil || e.source == nil {
		return ""
	}

	snap := e.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		writeCounter(&b, def.Name, def.Help, snap.Counters[def.ID])
	}

	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		writeHistogram(&b, def.Name, def.Help, internaldefs.NormalizeBuckets(raw))
	}

	writeCounter(&b, "sentinel_audit_dropped_total",
		"Audit events dropped due to a full buffer.", e.source.AuditDropped())

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	writeUint(b, value)
	b.WriteByte('\n')
}

func writeHistogram(b *strings.Builder, name, help string, raw [8]uint64) {
	cumulative := internaldefs.CumulativeBuckets(raw)

	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" histogram\n")

	for i, bound := range internaldefs.HistogramBounds {
		b.WriteString(name)
		b.WriteString(`_bucket{le="`)
		b.WriteString(bound)
		b.WriteString(`"} `)
		writeUint(b, cumulative[i])
		b.WriteByte('\n')
	}

	b.WriteString(name)
	b.WriteString("_count ")
	writeUint(b, cumulative[len(cumulative)-1])
	b.WriteByte('\n')

	// Bucketed counts do not retain exact durations, so the sum is not
	// recoverable. A constant zero keeps the field present and parseable.
	b.WriteString(name)
	b.WriteString("_sum 0\n")
}

func writeUint(b *strings.Builder, v uint64) {
	var buf [20]byte
	i := len(buf)
	for {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	b.Write(buf[i:])
}

func escapeHelp(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
