package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoutePath(t *testing.T) {
	assert.Equal(t, "/api/v1/case/{id}", normalizeRoutePath("/api/v1/case/608cafe595eb9dc05379b7f4"))
	assert.Equal(t, "/api/v1/case/{id}/hearings", normalizeRoutePath("/api/v1/case/608cafe595eb9dc05379b7f4/hearings"))
	assert.Equal(t, "/api/v1/cases", normalizeRoutePath("/api/v1/cases"))
}

func TestMetricsRecordAndSnapshot(t *testing.T) {
	mc := &MetricsCollector{
		routeMetrics: make(map[string]*RouteMetrics),
		startedAt:    time.Now(),
	}

	mc.Record("GET", "/api/v1/case/608cafe595eb9dc05379b7f4", 200, 10*time.Millisecond)
	mc.Record("GET", "/api/v1/case/5fc51f36c72ff10004dca381", 404, 30*time.Millisecond)

	snap := mc.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	// both ids collapse into a single route aggregate
	route, ok := snap.Routes["GET /api/v1/case/{id}"]
	assert.True(t, ok)
	assert.Equal(t, int64(2), route.Count)
	assert.Equal(t, int64(1), route.ErrorCount)
	assert.Equal(t, 10*time.Millisecond, route.MinTime)
	assert.Equal(t, 30*time.Millisecond, route.MaxTime)
	assert.Equal(t, 20*time.Millisecond, route.AvgTime)
}

func TestIdentityContext(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{UserID: "u1", Role: "tenant", Name: "Sam"})

	id, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, "tenant", id.Role)
	assert.Equal(t, "Sam", id.Name)

	_, ok = IdentityFromContext(context.Background())
	assert.False(t, ok)
}
