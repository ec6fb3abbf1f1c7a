// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveToolCall(t *testing.T) {
	m := NewMetrics(InstanceInfo{Version: "test", Transport: "stdio"})

	m.ObserveToolCall("jira_get_issue", StatusSuccess, 0.1)
	m.ObserveToolCall("jira_get_issue", StatusSuccess, 0.2)
	m.ObserveToolCall("jira_get_issue", StatusError, 0.3)

	expected := `
# HELP mcp_atlassian_tool_calls_total The total number of MCP tool calls.
# TYPE mcp_atlassian_tool_calls_total counter
mcp_atlassian_tool_calls_total{status="error",tool="jira_get_issue"} 1
mcp_atlassian_tool_calls_total{status="success",tool="jira_get_issue"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.GetRegistry(), strings.NewReader(expected), "mcp_atlassian_tool_calls_total"))
}

func TestSetProductAvailable(t *testing.T) {
	m := NewMetrics(InstanceInfo{Version: "test", Transport: "sse"})

	m.SetProductAvailable("jira", true)
	m.SetProductAvailable("confluence", false)

	expected := `
# HELP mcp_atlassian_config_product_available Whether a product resolved and is served (1) or was skipped (0).
# TYPE mcp_atlassian_config_product_available gauge
mcp_atlassian_config_product_available{product="confluence"} 0
mcp_atlassian_config_product_available{product="jira"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.GetRegistry(), strings.NewReader(expected), "mcp_atlassian_config_product_available"))
}

func TestObserveHTTPRequest(t *testing.T) {
	m := NewMetrics(InstanceInfo{})
	m.ObserveHTTPRequest("/healthz", "GET", "200", 0.01)

	count, err := testutil.GatherAndCount(m.GetRegistry(), "mcp_atlassian_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.ObserveToolCall("jira_search", StatusSuccess, 1)
		m.ObserveHTTPRequest("/sse", "GET", "200", 1)
		m.SetProductAvailable("jira", true)
		assert.Nil(t, m.GetRegistry())
	})
}
