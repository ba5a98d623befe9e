package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector(zap.NewNop())

	c.RecordRun(true)
	c.RecordRun(true)
	c.RecordRun(false)
	c.RecordCandidate("accept")
	c.RecordCandidate("abort")
	c.SetRegistrySize(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.candidatesTotal.WithLabelValues("abort")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.registrySkills))
}

func TestCollector_StageHistogram(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveStage("scan", 20*time.Millisecond)
	c.ObserveStage("compose", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(c.stageDuration))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.RecordRun(true)
	c.RecordCandidate("warn")
	c.ObserveStage("parse", time.Second)
	c.SetRegistrySize(1)
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, c.Gatherer())
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector(nil)
	c.RecordRun(true)

	path := filepath.Join(t.TempDir(), "textfile", "skillflow.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `skillflow_runs_total{outcome="success"} 1`)
}
