package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, tool, status string) float64 {
	t.Helper()
	return testutil.ToFloat64(m.toolCalls.WithLabelValues(tool, status))
}

func TestMetrics_ObserveToolCall(t *testing.T) {
	m := NewMetrics()
	m.ObserveToolCall("get_unread_emails", "success", 20*time.Millisecond)
	m.ObserveToolCall("get_unread_emails", "success", 30*time.Millisecond)
	m.ObserveToolCall("get_unread_emails", "error", time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m, "get_unread_emails", "success"))
	assert.Equal(t, 1.0, counterValue(t, m, "get_unread_emails", "error"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.toolDuration))
}

func TestMetrics_CountsToolCallsThroughServer(t *testing.T) {
	s := NewServer(&mcp.Implementation{Name: "metrics-test", Version: "test"}, nil)
	s.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := NewMetrics()
	s.SetMetrics(m)
	RegisterHelloWorldTool(s)

	cs := connect(t, s)
	for range 3 {
		_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
			Name:      "hello_world",
			Arguments: map[string]any{"name": "x"},
		})
		require.NoError(t, err)
	}

	// ListTools is not a tool call and must not be counted.
	_, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 3.0, counterValue(t, m, "hello_world", "success"))
	assert.Equal(t, 1, testutil.CollectAndCount(m.toolCalls))
}

func TestMetricsServer_ServesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveToolCall("hello_world", "success", time.Millisecond)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ms := NewMetricsServer(m, slog.New(slog.NewTextHandler(io.Discard, nil)))
	done := make(chan error, 1)
	go func() { done <- ms.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gmail_manager_tool_calls_total{status="success",tool="hello_world"} 1`)
	assert.Contains(t, string(body), "gmail_manager_tool_call_duration_seconds_bucket")

	require.NoError(t, ms.Shutdown(context.Background()))
	assert.NoError(t, <-done)
}
