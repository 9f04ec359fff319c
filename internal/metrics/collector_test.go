package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector() (*Collector, *prometheus.Registry) {
	registry := prometheus.NewRegistry()
	return NewCollectorWithRegistry(registry), registry
}

func TestCollector_Counters(t *testing.T) {
	c, _ := newTestCollector()

	c.RecordRead(10, 4)
	c.RecordRead(2, 2)
	c.RecordRotation()
	c.RecordFileSwitch()
	c.RecordTailError()
	c.RecordParseError()
	c.RecordShow(3)
	c.RecordTransition("level_loaded")
	c.RecordTransition("level_loaded")
	c.SetPing(42)

	assert.Equal(t, 12.0, testutil.ToFloat64(c.linesRead))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.linesBuffered))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.logRotations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fileSwitches))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tailErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.parseErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.showsCompleted))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.roundsCompleted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("level_loaded")))
	assert.Equal(t, 42.0, testutil.ToFloat64(c.lastPing))
}

func TestCollector_RecordTick(t *testing.T) {
	c, registry := newTestCollector()

	c.RecordTick(7, 2*time.Millisecond)

	assert.Equal(t, 7.0, testutil.ToFloat64(c.linesParsed))
	count, err := testutil.GatherAndCount(registry, "fallguys_parser_drain_size")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordRead(1, 1)
		c.RecordRotation()
		c.RecordFileSwitch()
		c.RecordTailError()
		c.RecordTick(1, time.Millisecond)
		c.RecordTransition("x")
		c.RecordParseError()
		c.RecordShow(1)
		c.SetPing(1)
	})
}

func TestCollector_Handler(t *testing.T) {
	c, _ := newTestCollector()
	c.SetPing(87)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "fallguys_server_ping_milliseconds 87"))
}
