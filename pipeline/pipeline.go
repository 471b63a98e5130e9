// Package pipeline implements the driver and build cache of spec.md
// §4.6: it evaluates operators left-to-right over an in-flight
// reference sequence, consulting a content-addressed cache to skip
// work whose fingerprint is already known.
package pipeline

import (
	"github.com/dirtabase/dirtabase/config"
	"github.com/dirtabase/dirtabase/op"
	log "github.com/sirupsen/logrus"
	. "github.com/stevegt/goadapt"
)

// Driver evaluates a linear sequence of operators, per spec.md §4.6.
// It is single-threaded in operator ordering (spec.md §5): stage N+1
// never runs before stage N emits.
type Driver struct {
	Cfg     config.Config
	Engines *EngineSet

	// Executions counts actual operator.Run invocations by name, for
	// asserting cache-resync behavior (spec.md §8 S5).
	Executions map[string]int

	// Metrics is optional; nil means no Prometheus counters are kept.
	Metrics *Metrics
}

// NewDriver returns a Driver configured from cfg, with no metrics
// registered. Use WithMetrics to opt in.
func NewDriver(cfg config.Config) *Driver {
	return &Driver{
		Cfg:        cfg,
		Engines:    NewEngineSet(),
		Executions: make(map[string]int),
	}
}

// WithMetrics attaches m to d and returns d, for chaining at
// construction time.
func (d *Driver) WithMetrics(m *Metrics) *Driver {
	d.Metrics = m
	return d
}

// RunStage executes operator against the in-flight stream inputs,
// implementing the per-stage contract of spec.md §4.6:
//  1. If cacheable, caching is enabled, there is at least one input,
//     and fp is in the cache: emit the cached outputs.
//  2. Else: execute; if cacheable, record fp -> outputs.
func (d *Driver) RunStage(operator op.Operator, inputs []op.Ref) (outputs []op.Ref, cacheHit bool, err error) {
	defer Return(&err)

	ctx := &op.Context{Cfg: d.Cfg}

	if operator.Cacheable() && d.Cfg.CacheEnabled && len(inputs) > 0 {
		engine := inputs[0].Engine
		fp := Fingerprint(operator.Name(), operator.ParamEncoding(), inputs)

		cached, found, lerr := lookupCache(engine, fp)
		Ck(lerr)
		if found {
			log.WithField("operator", operator.Name()).Info("pipeline: cache hit")
			if d.Metrics != nil {
				d.Metrics.CacheHits.WithLabelValues(operator.Name()).Inc()
			}
			return cached, true, nil
		}

		outputs, rerr := operator.Run(ctx, inputs)
		Ck(rerr)
		d.Executions[operator.Name()]++
		if d.Metrics != nil {
			d.Metrics.CacheMiss.WithLabelValues(operator.Name()).Inc()
			d.Metrics.Executions.WithLabelValues(operator.Name()).Inc()
		}

		serr := storeCache(engine, d.Cfg.Retries, fp, outputs)
		Ck(serr)
		log.WithField("operator", operator.Name()).Info("pipeline: cache miss, stored")
		return outputs, false, nil
	}

	outputs, err = operator.Run(ctx, inputs)
	Ck(err)
	d.Executions[operator.Name()]++
	if d.Metrics != nil {
		d.Metrics.Executions.WithLabelValues(operator.Name()).Inc()
	}
	return outputs, false, nil
}

// Run evaluates stages in order starting from an empty in-flight
// stream (the normal case: the first stage is always Import, which
// ignores its inputs) and returns the final stream.
func (d *Driver) Run(stages []op.Operator) (final []op.Ref, err error) {
	defer Return(&err)

	var stream []op.Ref
	for _, stage := range stages {
		out, _, rerr := d.RunStage(stage, stream)
		Ck(rerr)
		stream = out
	}
	return stream, nil
}
