package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	sentinel "github.com/sentinelforge/sentinel"
	"github.com/sentinelforge/sentinel/metrics/export/internaldefs"
)

var (
	// ErrNilMeter is returned when no meter is supplied.
	ErrNilMeter = errors.New("otel exporter: nil meter")
	// ErrNilSource is returned when no snapshot source is supplied.
	ErrNilSource = errors.New("otel exporter: nil source")
)

// metricsSource is the slice of the engine the exporter reads.
type metricsSource interface {
	MetricsSnapshot() sentinel.MetricsSnapshot
	AuditDropped() uint64
}

type histogramInstruments struct {
	id      sentinel.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter registers observable instruments for every engine metric on
// an OpenTelemetry meter. Close unregisters the collection callback.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[sentinel.MetricID]metric.Int64ObservableCounter
	histograms   []histogramInstruments
	auditDropped metric.Int64ObservableCounter
}

// NewOTelExporter wires an engine's metrics into meter.
func NewOTelExporter(engine *sentinel.Engine, meter metric.Meter) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(engine, meter)
}

// NewOTelExporterFromSource wires any snapshot source into meter.
func NewOTelExporterFromSource(source metricsSource, meter metric.Meter) (*OTelExporter, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if meter == nil {
		return nil, ErrNilMeter
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[sentinel.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+1)

	for _, def := range internaldefs.CounterDefs {
		counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = counter
		observables = append(observables, counter)
	}

	for _, def := range internaldefs.HistogramDefs {
		inst := histogramInstruments{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := fmt.Sprintf("%s_bucket_le_%s", def.Name, suffix)
			gauge, err := meter.Int64ObservableGauge(name, metric.WithDescription(def.Help))
			if err != nil {
				return nil, fmt.Errorf("create gauge %s: %w", name, err)
			}
			inst.buckets[i] = gauge
			observables = append(observables, gauge)
		}

		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription(def.Help+" Total observation count."))
		if err != nil {
			return nil, fmt.Errorf("create gauge %s: %w", countName, err)
		}
		inst.count = count
		observables = append(observables, count)

		e.histograms = append(e.histograms, inst)
	}

	dropped, err := meter.Int64ObservableCounter("sentinel_audit_dropped_total",
		metric.WithDescription("Audit events dropped due to a full buffer."))
	if err != nil {
		return nil, fmt.Errorf("create counter sentinel_audit_dropped_total: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	registration, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = registration

	return e, nil
}

func (e *OTelExporter) observe(_ context.Context, observer metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, def := range internaldefs.CounterDefs {
		observer.ObserveInt64(e.counters[def.ID], int64(snap.Counters[def.ID]))
	}

	for _, inst := range e.histograms {
		raw, ok := snap.Histograms[inst.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
		for i, gauge := range inst.buckets {
			observer.ObserveInt64(gauge, int64(cumulative[i]))
		}
		observer.ObserveInt64(inst.count, int64(cumulative[len(cumulative)-1]))
	}

	observer.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback. Safe to call more than once.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	reg := e.registration
	e.registration = nil
	return reg.Unregister()
}
