package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.RecordFile("convert", StatusOK)
	m.RecordFile("convert", StatusOK)
	m.RecordFiles("convert", StatusInvalid, 3)
	m.RecordRenderer("tiff", StatusFailed)
	m.RecordDeleted("merge", 4)
	m.RecordOutputBytes("compress", 2048)
	m.ObserveDuration("convert", 150*time.Millisecond)

	assert.InDelta(t, 2, promtest.ToFloat64(m.filesTotal.WithLabelValues("convert", StatusOK)), 0.001)
	assert.InDelta(t, 3, promtest.ToFloat64(m.filesTotal.WithLabelValues("convert", StatusInvalid)), 0.001)
	assert.InDelta(t, 1, promtest.ToFloat64(m.rendererInvocations.WithLabelValues("tiff", StatusFailed)), 0.001)
	assert.InDelta(t, 4, promtest.ToFloat64(m.sourcesDeleted.WithLabelValues("merge")), 0.001)
	assert.InDelta(t, 2048, promtest.ToFloat64(m.outputBytes.WithLabelValues("compress")), 0.001)

	n, err := promtest.GatherAndCount(m.Registry(), "tiffkit_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFile("convert", StatusOK)
		m.RecordFiles("convert", StatusOK, 2)
		m.RecordRenderer("pdf", StatusOK)
		m.RecordDeleted("merge", 1)
		m.RecordOutputBytes("merge", 1)
		m.ObserveDuration("merge", time.Second)
		require.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	})
	assert.NotNil(t, m.Registry())
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.RecordFile("compress", StatusFailed)

	path := filepath.Join(t.TempDir(), "tiffkit.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tiffkit_files_total{operation="compress",status="failed"} 1`)

	err = m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
