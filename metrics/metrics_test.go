package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByPattern(t *testing.T) {
	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /raw/labo/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := m.Middleware(mux)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw/labo/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "GET /raw/labo/{id}", "404")))
}

func TestRecorders(t *testing.T) {
	m := New()
	m.RecordMessage("")
	m.RecordMessage("STOP")
	m.RecordMessage("STOP")
	m.RecordShiftOEE("JFI", 87.5)
	m.RecordDischarge("SILO 710")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("STOP")))
	assert.Equal(t, 87.5, testutil.ToFloat64(m.shiftOEE.WithLabelValues("JFI")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dischargesTotal.WithLabelValues("SILO 710")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordMessage("START")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `fewr_logbook_messages_total{calc="START"} 1`))
}
