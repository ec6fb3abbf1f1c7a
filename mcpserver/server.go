// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattermost/mattermost-mcp-atlassian/atlassian"
	"github.com/mattermost/mattermost-mcp-atlassian/config"
	"github.com/mattermost/mattermost-mcp-atlassian/logger"
	"github.com/mattermost/mattermost-mcp-atlassian/mcpserver/tools"
	"github.com/mattermost/mattermost-mcp-atlassian/metrics"
)

const serverName = "mcp-atlassian"

// AtlassianMCPServer serves the Jira and Confluence tools of a resolved
// gateway configuration over the configured transport.
type AtlassianMCPServer struct {
	mcpServer *mcp.Server
	config    *config.GatewayConfig
	logger    logger.Logger
	metrics   metrics.Metrics
	version   string
}

// NewServer builds API clients for every available product and registers
// their tools.
func NewServer(cfg *config.GatewayConfig, log logger.Logger, m metrics.Metrics, version string) (*AtlassianMCPServer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway configuration cannot be nil")
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	var jira tools.JiraService
	if cfg.Jira != nil {
		client, err := atlassian.NewJiraClient(cfg.Jira)
		if err != nil {
			return nil, fmt.Errorf("failed to create jira client: %w", err)
		}
		jira = client
	}

	var confluence tools.ConfluenceService
	if cfg.Confluence != nil {
		client, err := atlassian.NewConfluenceClient(cfg.Confluence)
		if err != nil {
			return nil, fmt.Errorf("failed to create confluence client: %w", err)
		}
		confluence = client
	}

	s := &AtlassianMCPServer{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: version,
		}, nil),
		config:  cfg,
		logger:  log,
		metrics: m,
		version: version,
	}

	tools.NewAtlassianToolProvider(jira, confluence, cfg.ReadOnly(), log, m).ProvideTools(s.mcpServer)

	for _, p := range config.Products {
		if m != nil {
			m.SetProductAvailable(string(p), cfg.Product(p) != nil)
		}
	}

	return s, nil
}

// GetMCPServer returns the underlying MCP server for testing purposes
func (s *AtlassianMCPServer) GetMCPServer() *mcp.Server {
	return s.mcpServer
}

// Serve runs the configured transport until ctx is cancelled or the client
// disconnects.
func (s *AtlassianMCPServer) Serve(ctx context.Context) error {
	transport := s.config.Global.Transport

	s.logger.Info("starting mcp server",
		"transport", string(transport.Kind),
		"products", fmt.Sprint(s.config.Available()),
		"read_only", s.config.ReadOnly(),
	)

	switch transport.Kind {
	case config.TransportStdio:
		return s.serveStdio(ctx)
	case config.TransportSSE:
		return s.serveSSE(ctx, fmt.Sprintf("0.0.0.0:%d", transport.Port))
	default:
		return fmt.Errorf("unsupported transport: %s", transport.Kind)
	}
}
