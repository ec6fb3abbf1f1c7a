// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-mcp-atlassian/logger"
	"github.com/mattermost/mattermost-mcp-atlassian/metrics"
)

func newHTTPTestServer(t *testing.T, m metrics.Metrics) http.Handler {
	t.Helper()

	// This just makes gin not output a whole bunch of debug stuff.
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = io.Discard

	cfg := buildConfig(t, map[string]string{
		"TRANSPORT":                 "sse",
		"READ_ONLY_MODE":            "yes",
		"CONFLUENCE_URL":            "https://wiki.example.com",
		"CONFLUENCE_PERSONAL_TOKEN": "pat",
	})

	s, err := NewServer(cfg, logger.NewNopLogger(), m, "1.2.3")
	require.NoError(t, err)
	return s.HTTPHandler()
}

func TestHealthz(t *testing.T) {
	handler := newHTTPTestServer(t, nil)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Status   string   `json:"status"`
		Version  string   `json:"version"`
		Products []string `json:"products"`
		ReadOnly bool     `json:"read_only"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, []string{"confluence"}, body.Products)
	assert.True(t, body.ReadOnly)

	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", recorder.Header().Get("X-Frame-Options"))
}

func TestRequestID(t *testing.T) {
	handler := newHTTPTestServer(t, nil)

	t.Run("generated", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Len(t, recorder.Header().Get(requestIDHeader), 36)
	})

	t.Run("propagated", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		request.Header.Set(requestIDHeader, "abc-123")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, "abc-123", recorder.Header().Get(requestIDHeader))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.NewMetrics(metrics.InstanceInfo{Version: "1.2.3", Transport: "sse"})
	handler := newHTTPTestServer(t, m)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `mcp_atlassian_http_requests_total{handler="/healthz",method="GET",status_code="200"} 1`)
	assert.Contains(t, recorder.Body.String(), `mcp_atlassian_http_requests_total{handler="unmatched",method="GET",status_code="404"} 1`)
	assert.Contains(t, recorder.Body.String(), `mcp_atlassian_system_info{transport="sse",version="1.2.3"} 1`)

	count, err := testutil.GatherAndCount(m.GetRegistry(), "mcp_atlassian_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	handler := newHTTPTestServer(t, nil)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestSSEEndpointAnnouncesSession(t *testing.T) {
	ts := httptest.NewServer(newHTTPTestServer(t, nil))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	require.NoError(t, err)
	request.Header.Set("Accept", "text/event-stream")

	response, err := ts.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Contains(t, response.Header.Get("Content-Type"), "text/event-stream")

	reader := bufio.NewReader(response.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: endpoint", strings.TrimSpace(event))

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(data), "data: /sse?sessionid="), data)
}

func TestStreamableEndpointInitialize(t *testing.T) {
	ts := httptest.NewServer(newHTTPTestServer(t, nil))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2025-06-18","capabilities":{},` +
		`"clientInfo":{"name":"test-client","version":"0.0.1"}}}`

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.URL+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json, text/event-stream")

	response, err := ts.Client().Do(request)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.NotEmpty(t, response.Header.Get("Mcp-Session-Id"))

	payload, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"serverInfo"`)
	assert.Contains(t, string(payload), `"mcp-atlassian"`)
}

func TestServeSSESwitchesGinToReleaseMode(t *testing.T) {
	gin.DefaultWriter = io.Discard
	gin.SetMode(gin.DebugMode)
	defer gin.SetMode(gin.ReleaseMode)

	cfg := buildConfig(t, map[string]string{
		"TRANSPORT":                 "sse",
		"CONFLUENCE_URL":            "https://wiki.example.com",
		"CONFLUENCE_PERSONAL_TOKEN": "pat",
	})
	s, err := NewServer(cfg, logger.NewNopLogger(), nil, "1.2.3")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.serveSSE(ctx, "127.0.0.1:0"))
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}
