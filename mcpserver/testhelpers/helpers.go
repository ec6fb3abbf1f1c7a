// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package testhelpers connects in-memory MCP clients to a server under test.
package testhelpers

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// CreateTestMCPSession creates an in-memory MCP client session connected to the server.
// The server and session are stopped when the test ends.
func CreateTestMCPSession(t *testing.T, mcpServer *mcp.Server) *mcp.ClientSession {
	t.Helper()
	require.NotNil(t, mcpServer, "MCP server must be provided")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		if err := mcpServer.Run(ctx, serverTransport); err != nil && !errors.Is(err, context.Canceled) {
			t.Logf("Server stopped with error: %v", err)
		}
	}()

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "Failed to connect test client to MCP server")
	t.Cleanup(func() { _ = session.Close() })

	return session
}

// CallTool calls toolName through session and fails the test on protocol
// errors. Tool failures are reported through the result's IsError.
func CallTool(t *testing.T, session *mcp.ClientSession, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

// ResultText returns the text of the first content block.
func ResultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

// ToolNames lists the names of the tools the server advertises.
func ToolNames(t *testing.T, session *mcp.ClientSession) []string {
	t.Helper()

	list, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	return names
}
