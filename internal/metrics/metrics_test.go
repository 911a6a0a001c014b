package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsIsolated(t *testing.T) {
	// Two instances must not collide on registration.
	a := New()
	b := New()

	a.RecordCodecOperation("read", true, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.codecOperationsTotal.WithLabelValues("read", statusSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.codecOperationsTotal.WithLabelValues("read", statusSuccess)))
}

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordHTTPRequest("POST", "/api/v1/tags/write", 422, 5*time.Millisecond)
	m.RecordCodecOperation("write", false, time.Millisecond)
	m.RecordWarnings("id3", 3)
	m.RecordWarnings("cover", 0)
	m.RecordStored("mp3", 1024)
	m.RecordStored("mp3", 1024)
	m.SetStoredFiles(7)
	m.RecordTranscode(true)

	done := m.TrackInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsInFlight))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsInFlight))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/api/v1/tags/write", "422")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.codecOperationsTotal.WithLabelValues("write", statusError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.codecWarningsTotal.WithLabelValues("id3")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(m.storedBytesTotal.WithLabelValues("mp3")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.storedFiles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transcodesTotal.WithLabelValues(statusSuccess)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordStored("cover", 10)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tagedit_stored_bytes_total{kind="cover"} 10`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
