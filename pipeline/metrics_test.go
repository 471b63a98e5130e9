package pipeline

import (
	"testing"

	"github.com/dirtabase/dirtabase/archive"
	"github.com/dirtabase/dirtabase/cas"
	"github.com/dirtabase/dirtabase/op"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c *prometheus.CounterVec, label string) float64 {
	t.Helper()
	m := &dto.Metric{}
	tassert(t, c.WithLabelValues(label).Write(m) == nil, "failed to snapshot counter")
	return m.GetCounter().GetValue()
}

func TestMetricsCountExecutionsAndCacheHits(t *testing.T) {
	e := cas.NewMemory()
	in := storeFor(t, e, archive.Archive{Entries: []archive.Entry{{Path: "x", Kind: archive.KindFile, Triad: fileTriad("x")}}})

	d := NewDriver(baseCfg()).WithMetrics(NewMetrics(prometheus.NewRegistry()))
	prefix := &op.Prefix{From: "x", To: "y"}

	_, _, err := d.RunStage(prefix, []op.Ref{in})
	tassert(t, err == nil, "%v", err)
	tassert(t, counterValue(t, d.Metrics.Executions, "prefix") == 1, "expected 1 execution counted")
	tassert(t, counterValue(t, d.Metrics.CacheMiss, "prefix") == 1, "expected 1 cache miss counted")

	_, _, err = d.RunStage(prefix, []op.Ref{in})
	tassert(t, err == nil, "%v", err)
	tassert(t, counterValue(t, d.Metrics.Executions, "prefix") == 1, "expected no additional execution counted on cache hit")
	tassert(t, counterValue(t, d.Metrics.CacheHits, "prefix") == 1, "expected 1 cache hit counted")
}
