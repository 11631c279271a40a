package otel

import (
	"context"
	"errors"
	"fmt"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// VerifyTotalName is the attribute-keyed rollup of all verification results.
const VerifyTotalName = "gocaptcha_verify_total"

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() goCaptcha.MetricsSnapshot
	AuditDropped() uint64
}

type resultSeries struct {
	id   goCaptcha.MetricID
	attr metric.ObserveOption
}

func resultAttr(name string) metric.ObserveOption {
	return metric.WithAttributes(attribute.String("result", name))
}

var verifySeries = []resultSeries{
	{goCaptcha.MetricVerifyAccepted, resultAttr(goCaptcha.ResultAccepted.String())},
	{goCaptcha.MetricVerifyInvalidData, resultAttr(goCaptcha.ResultInvalidData.String())},
	{goCaptcha.MetricVerifyExpired, resultAttr(goCaptcha.ResultExpired.String())},
	{goCaptcha.MetricVerifyInvalidSolution, resultAttr(goCaptcha.ResultInvalidSolution.String())},
	{goCaptcha.MetricVerifyFatal, resultAttr("fatal")},
}

// leAttrs holds one observe option per histogram bound, +Inf last.
var leAttrs = func() []metric.ObserveOption {
	out := make([]metric.ObserveOption, len(internaldefs.HistogramBounds))
	for i, bound := range internaldefs.HistogramBounds {
		out[i] = metric.WithAttributes(attribute.String("le", bound))
	}
	return out
}()

type counterBinding struct {
	id  goCaptcha.MetricID
	ins metric.Int64ObservableCounter
}

// histogramBinding exports a snapshot histogram as a cumulative bucket gauge keyed by
// an "le" attribute plus a sample count gauge.
type histogramBinding struct {
	id      goCaptcha.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// OTelExporter publishes engine snapshots as asynchronous OTel instruments.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters    []counterBinding
	histograms  []histogramBinding
	verifyTotal metric.Int64ObservableCounter
	dropped     metric.Int64ObservableCounter
}

// NewOTelExporter registers instruments on meter that read from engine on every collection.
func NewOTelExporter(meter metric.Meter, engine *goCaptcha.Engine) (*OTelExporter, error) {
	return NewOTelExporterFromSource(meter, engine)
}

func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	observables, err := e.createInstruments(meter)
	if err != nil {
		return nil, err
	}

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) createInstruments(meter metric.Meter) ([]metric.Observable, error) {
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", def.Name, err)
		}
		e.counters = append(e.counters, counterBinding{id: def.ID, ins: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per le bound."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s buckets: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Sample count."))
		if err != nil {
			return nil, fmt.Errorf("histogram %s count: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, histogramBinding{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	var err error
	e.verifyTotal, err = meter.Int64ObservableCounter(VerifyTotalName, metric.WithDescription("Verifications by result."))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", VerifyTotalName, err)
	}
	e.dropped, err = meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDroppedName, err)
	}
	return append(observables, e.verifyTotal, e.dropped), nil
}

func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()

	for _, c := range e.counters {
		o.ObserveInt64(c.ins, int64(snap.Counters[c.id]))
	}
	for _, r := range verifySeries {
		o.ObserveInt64(e.verifyTotal, int64(snap.Counters[r.id]), r.attr)
	}
	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[h.id]))
		for i, v := range cumulative {
			o.ObserveInt64(h.buckets, int64(v), leAttrs[i])
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.dropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
