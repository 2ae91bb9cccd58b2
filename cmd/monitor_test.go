package cmd

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/CraigKelly/bvsel/sampler"
)

func TestMonitorMetrics(t *testing.T) {
	assert := assert.New(t)

	m := newMonitor()
	m.Progress(sampler.Progress{Method: "ridge", Iteration: 500, Total: 2000})
	assert.Equal(500.0, testutil.ToFloat64(m.Iteration.WithLabelValues("ridge")))
	assert.Equal(0.25, testutil.ToFloat64(m.Fraction.WithLabelValues("ridge")))

	m.Finished(nil)
	m.Finished(&sampler.Result{Method: "ssvs", Iterations: 40, Elapsed: 2 * time.Second})
	assert.Equal(1.0, testutil.ToFloat64(m.Runs.WithLabelValues("ssvs", "incomplete")))
	assert.Equal(0.0, testutil.ToFloat64(m.Runs.WithLabelValues("ssvs", "complete")))
	assert.Equal(40.0, testutil.ToFloat64(m.Iteration.WithLabelValues("ssvs")))
	assert.Equal(1, testutil.CollectAndCount(m.RunSeconds))

	n, err := testutil.GatherAndCount(m.registry, "bvsel_sampler_runs_total")
	assert.NoError(err)
	assert.Equal(2, n)
}

func TestMonitorStartStop(t *testing.T) {
	assert := assert.New(t)

	m := newMonitor()
	m.Stop() // never started: no-op

	assert.NoError(m.Start("127.0.0.1:0"))
	assert.Error(m.Start("127.0.0.1:0"))
	m.Stop()
}
