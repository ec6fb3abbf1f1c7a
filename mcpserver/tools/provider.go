// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattermost/mattermost-mcp-atlassian/atlassian"
	"github.com/mattermost/mattermost-mcp-atlassian/config"
	"github.com/mattermost/mattermost-mcp-atlassian/logger"
	"github.com/mattermost/mattermost-mcp-atlassian/metrics"
)

// JiraService is the subset of the Jira client used by the tools.
type JiraService interface {
	GetIssue(ctx context.Context, issueKey string) (*atlassian.Issue, error)
	Search(ctx context.Context, jql string, opts atlassian.SearchOptions) ([]atlassian.Issue, error)
	ProjectIssues(ctx context.Context, projectKey string, limit int) ([]atlassian.Issue, error)
	Transitions(ctx context.Context, issueKey string) ([]atlassian.Transition, error)
	CreateIssue(ctx context.Context, input atlassian.IssueInput) (*atlassian.Issue, error)
	UpdateIssue(ctx context.Context, issueKey string, fields map[string]any) (*atlassian.Issue, error)
	DeleteIssue(ctx context.Context, issueKey string) error
	AddComment(ctx context.Context, issueKey, body string) (*atlassian.Comment, error)
	TransitionIssue(ctx context.Context, issueKey, transitionID string) (*atlassian.Issue, error)
	SearchFields(ctx context.Context, keyword string, limit int) ([]atlassian.Field, error)
	EpicIssues(ctx context.Context, epicKey string, limit int) ([]atlassian.Issue, error)
	LinkToEpic(ctx context.Context, issueKey, epicKey string) (*atlassian.Issue, error)
	CreateIssueLink(ctx context.Context, input atlassian.IssueLinkInput) error
	RemoveIssueLink(ctx context.Context, linkID string) error
	LinkTypes(ctx context.Context) ([]atlassian.LinkType, error)
	BatchCreateIssues(ctx context.Context, inputs []atlassian.IssueInput, validateOnly bool) ([]atlassian.Issue, error)
}

// ConfluenceService is the subset of the Confluence client used by the tools.
type ConfluenceService interface {
	Search(ctx context.Context, query string, opts atlassian.SearchOptions) ([]atlassian.Page, error)
	GetPage(ctx context.Context, pageID string) (*atlassian.Page, error)
	PageChildren(ctx context.Context, parentID string, start, limit int, includeContent bool) ([]atlassian.Page, error)
	PageAncestors(ctx context.Context, pageID string) ([]atlassian.Page, error)
	Comments(ctx context.Context, pageID string) ([]atlassian.Comment, error)
	CreatePage(ctx context.Context, input atlassian.PageInput) (*atlassian.Page, error)
	UpdatePage(ctx context.Context, pageID string, input atlassian.PageInput) (*atlassian.Page, error)
	DeletePage(ctx context.Context, pageID string) error
}

// MCPToolResolver produces the text result of a tool call from its decoded
// arguments.
type MCPToolResolver[In any] func(ctx context.Context, args In) (string, error)

// MCPTool describes a tool before registration.
type MCPTool struct {
	Name        string
	Description string

	// Write marks tools that change state in Jira or Confluence.
	Write bool
}

// AtlassianToolProvider registers the Jira and Confluence tools for the
// products that are configured.
type AtlassianToolProvider struct {
	jira       JiraService
	confluence ConfluenceService
	readOnly   bool
	logger     logger.Logger
	metrics    metrics.Metrics
}

// NewAtlassianToolProvider creates a tool provider. A nil service disables
// the tools of that product.
func NewAtlassianToolProvider(jira JiraService, confluence ConfluenceService, readOnly bool, log logger.Logger, m metrics.Metrics) *AtlassianToolProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AtlassianToolProvider{
		jira:       jira,
		confluence: confluence,
		readOnly:   readOnly,
		logger:     log,
		metrics:    m,
	}
}

// ProvideTools registers every available tool on mcpServer. Write tools are
// skipped in read-only mode.
func (p *AtlassianToolProvider) ProvideTools(mcpServer *mcp.Server) {
	if p.confluence != nil {
		p.registerConfluenceTools(mcpServer)
	}
	if p.jira != nil {
		p.registerJiraTools(mcpServer)
	}
}

// registerTool adds tool to mcpServer unless it is a write tool and the
// provider is read-only.
func registerTool[In any](p *AtlassianToolProvider, mcpServer *mcp.Server, tool MCPTool, resolver MCPToolResolver[In]) {
	if tool.Write && p.readOnly {
		p.logger.Debug("skipping write tool in read-only mode", "tool", tool.Name)
		return
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: NewJSONSchemaFromStruct[In](),
	}, createToolHandler(p, tool, resolver))
}

// createToolHandler wraps resolver with the read-only guard, metrics and
// error reporting. Failures are returned as error results rather than
// protocol errors.
func createToolHandler[In any](p *AtlassianToolProvider, tool MCPTool, resolver MCPToolResolver[In]) mcp.ToolHandlerFor[In, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args In) (*mcp.CallToolResult, any, error) {
		start := time.Now()

		if tool.Write && p.readOnly {
			p.observe(tool.Name, metrics.StatusDenied, start)
			return errorResult(fmt.Sprintf("Operation '%s' is not available in read-only mode.", tool.Name)), nil, nil
		}

		text, err := resolver(ctx, args)
		if err != nil {
			p.logger.Debug("tool call failed", "tool", tool.Name, "error", err.Error())
			p.observe(tool.Name, metrics.StatusError, start)
			return errorResult("Error: " + err.Error()), nil, nil
		}

		p.observe(tool.Name, metrics.StatusSuccess, start)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil, nil
	}
}

func (p *AtlassianToolProvider) observe(tool, status string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveToolCall(tool, status, time.Since(start).Seconds())
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

// NewJSONSchemaFromStruct derives a tool input schema from T.
func NewJSONSchemaFromStruct[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create JSON schema from struct: %v", err))
	}
	return schema
}

// formatJSON renders v the way tool results are returned to clients.
func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

// filterOverride parses a per-call filter argument. An empty argument keeps
// the configured filter.
func filterOverride(value string) *config.EntityFilter {
	if value == "" {
		return nil
	}
	filter := config.ParseEntityFilter(value)
	return &filter
}
