package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_Counts(t *testing.T) {
	r := New("", "")

	r.BatchCommitted(10000)
	r.BatchCommitted(42)
	r.SheetsSkipped(1)
	r.RunFinished(1500*time.Millisecond, true)

	assert.Equal(t, 10042.0, testutil.ToFloat64(r.rows))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.batches))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sheetsSkipped))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.duration))
	assert.Greater(t, testutil.ToFloat64(r.lastSuccess), 0.0)
	assert.Equal(t, DefaultJob, r.job)
}

func TestPush_Disabled(t *testing.T) {
	r := New("", "nightly")
	assert.False(t, r.Enabled())
	require.NoError(t, r.Push(context.Background(), "run-1"))
}

func TestPush_SendsToGateway(t *testing.T) {
	var (
		method string
		path   string
		body   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		method = req.Method
		path = req.URL.Path
		body, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, "nightly")
	r.BatchCommitted(3)
	require.NoError(t, r.Push(context.Background(), "run-1"))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/nightly/instance/run-1", path)
	assert.Contains(t, string(body), "salesloader_rows_inserted_total")
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, "").Push(context.Background(), "")
	require.Error(t, err)
}
