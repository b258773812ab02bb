package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/edgeinfer/internal/testutil/testlog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("inferctl", "GET", "/health", 200, 12*time.Millisecond)
	RecordResponse("loop0", 40*time.Millisecond, ResponseLine)
	RecordResponse("loop0", 2*time.Second, ResponseTimeout)
	RecordSession("loop0", "completed")
}

func TestRecordOutcomeCounts(t *testing.T) {
	testlog.Start(t)
	before := testutil.ToFloat64(records.WithLabelValues("metrics-test", "normal"))
	RecordOutcome("metrics-test", "normal")
	RecordOutcome("metrics-test", "normal")
	assert.InDelta(t, before+2, testutil.ToFloat64(records.WithLabelValues("metrics-test", "normal")), 1e-9)

	RecordBytesSent("metrics-test", 560)
	assert.InDelta(t, 560, testutil.ToFloat64(bytesSent.WithLabelValues("metrics-test")), 1e-9)
}

func TestRecordResponseLabelsReadErrors(t *testing.T) {
	testlog.Start(t)
	before := testutil.CollectAndCount(responseDuration)
	RecordResponse("metrics-read-test", 3*time.Millisecond, ResponseReadError)
	RecordResponse("metrics-read-test", 4*time.Millisecond, ResponseReadError)
	assert.Equal(t, before+1, testutil.CollectAndCount(responseDuration))

	rec := httptest.NewRecorder()
	NewRouter("inferctl", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`edgeinfer_session_response_duration_seconds_count{port="metrics-read-test",result="read_error"} 2`)
}
