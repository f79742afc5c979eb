package observability

import (
	"io"
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

func TestCollector_ObserveOracle(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObserveOracle("candidates", false, 20*time.Millisecond)
	c.ObserveOracle("candidates", true, time.Second)
	c.ObserveOracle("relocation", true, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.OracleRequests.WithLabelValues("candidates", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.OracleRequests.WithLabelValues("candidates", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.OracleRequests.WithLabelValues("relocation", "fallback")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.OracleDurations))
}

func TestCollector_GameMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.TargetsCollected(3)
	c.TargetsCollected(0)
	c.WishGranted("scouter", true)
	c.WishGranted("design.capsule", false)
	c.SnapshotSaveFailed()
	c.StaleResponseDropped()
	c.SetActiveSessions(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.Collected))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Wishes.WithLabelValues("scouter", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Wishes.WithLabelValues("design.capsule", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SaveFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StaleResponses))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.ActiveSessions))
}

func TestCollector_ReRegisterReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	require.NoError(t, err)
	second, err := NewCollector(reg)
	require.NoError(t, err)

	first.TargetsCollected(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(second.Collected))
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveOracle("candidates", true, time.Second)
		c.TargetsCollected(1)
		c.WishGranted("x", true)
		c.SnapshotSaveFailed()
		c.StaleResponseDropped()
		c.SetActiveSessions(1)
	})
}

func TestCollector_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	c.ObserveOracle("candidates", false, time.Millisecond)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `oracle_requests_total{kind="candidates",outcome="ok"} 1`))
}
