package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/comando/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(framesTotal.WithLabelValues(DirectionIn, "error"))
	RecordFrame(DirectionOut, 12, nil)
	RecordFrame(DirectionIn, 0, errors.New("boom"))
	RecordCommand(DirectionIn, 7, nil)
	RecordCall("ping", 24*time.Millisecond, nil)

	after := testutil.ToFloat64(framesTotal.WithLabelValues(DirectionIn, "error"))
	require.Equal(t, before+1, after)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestHandlerServesMetricsAndHealth(t *testing.T) {
	testlog.Start(t)
	RecordCommand(DirectionOut, 3, nil)
	var logs lockedBuffer
	srv := httptest.NewServer(Handler(zerolog.New(&logs)))
	defer srv.Close()

	healthz := httpRequests.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(healthz)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, before+1, testutil.ToFloat64(healthz))
	require.Contains(t, logs.String(), `"path":"/healthz"`)
	require.Contains(t, logs.String(), `"status":200`)

	resp, err = http.Get(srv.URL + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, logs.String(), `"level":"warn"`)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "comando_command_commands_total"))
}

func TestSessionLoggerAssignsID(t *testing.T) {
	testlog.Start(t)
	_, id := SessionLogger("serial", "")
	require.Len(t, id, 36)
	_, fixed := SessionLogger("serial", "abc")
	require.Equal(t, "abc", fixed)
}
