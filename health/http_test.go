package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, agg *Aggregator, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(agg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandler(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("node", Healthy("reachable")))
	agg.Register(fixed("sync", Degraded("syncing")))

	assert.Equal(t, "OK", serve(t, agg, "/healthz").Body.String())

	rec := serve(t, agg, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", rec.Body.String())

	rec = serve(t, agg, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string
		Checks map[string]struct{ Status, Message string }
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "reachable", body.Checks["node"].Message)

	assert.Equal(t, http.StatusNotFound, serve(t, agg, "/health/missing").Code)
}

func TestHandler_Unhealthy(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("node", Unhealthy("down", errors.New("dial tcp: refused"))))

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, agg, "/readyz").Code)

	rec := serve(t, agg, "/health/node")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "dial tcp: refused", body.Error)
}
