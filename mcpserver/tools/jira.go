// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattermost/mattermost-mcp-atlassian/atlassian"
)

type JiraGetIssueArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
}

type JiraSearchArgs struct {
	JQL            string `json:"jql" jsonschema:"JQL query. Example: 'project = PROJ AND status != Done ORDER BY updated DESC'"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50). Default is 10"`
	ProjectsFilter string `json:"projects_filter,omitempty" jsonschema:"Comma-separated project keys to search in. Overrides the configured projects filter"`
}

type JiraGetProjectIssuesArgs struct {
	ProjectKey string `json:"project_key" jsonschema:"The project key. Example: 'PROJ'"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50). Default is 10"`
}

type JiraGetTransitionsArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
}

type JiraCreateIssueArgs struct {
	ProjectKey  string   `json:"project_key" jsonschema:"The project key where the issue will be created. Example: 'PROJ'"`
	Summary     string   `json:"summary" jsonschema:"Summary (title) of the issue"`
	IssueType   string   `json:"issue_type" jsonschema:"Issue type. Example: 'Task', 'Bug', 'Story'"`
	Description string   `json:"description,omitempty" jsonschema:"Issue description"`
	Assignee    string   `json:"assignee,omitempty" jsonschema:"Assignee username (Server/Data Center) or account id (Cloud)"`
	Priority    string   `json:"priority,omitempty" jsonschema:"Priority name. Example: 'High'"`
	Labels      []string `json:"labels,omitempty" jsonschema:"Labels to add to the issue"`
}

type JiraUpdateIssueArgs struct {
	IssueKey string         `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
	Fields   map[string]any `json:"fields" jsonschema:"Fields to set, as accepted by the Jira REST API. Example: {\"summary\": \"New title\", \"priority\": {\"name\": \"High\"}}"`
}

type JiraDeleteIssueArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
}

type JiraAddCommentArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
	Comment  string `json:"comment" jsonschema:"Comment text in Jira wiki markup"`
}

type JiraTransitionIssueArgs struct {
	IssueKey     string `json:"issue_key" jsonschema:"Jira issue key. Example: 'PROJ-123'"`
	TransitionID string `json:"transition_id" jsonschema:"Transition id as returned by jira_get_transitions"`
}

type JiraSearchFieldsArgs struct {
	Keyword string `json:"keyword,omitempty" jsonschema:"Keyword matched against field ids, names and JQL clause names. Lists fields in server order when empty"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50). Default is 10"`
}

type JiraGetEpicIssuesArgs struct {
	EpicKey string `json:"epic_key" jsonschema:"The key of the epic. Example: 'PROJ-123'"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50). Default is 10"`
}

type JiraGetLinkTypesArgs struct{}

type JiraLinkToEpicArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"The key of the issue to link. Example: 'PROJ-123'"`
	EpicKey  string `json:"epic_key" jsonschema:"The key of the epic to link to. Example: 'PROJ-456'"`
}

type JiraCreateIssueLinkArgs struct {
	LinkType        string `json:"link_type" jsonschema:"Name of the link type as returned by jira_get_link_types. Example: 'Blocks'"`
	InwardIssueKey  string `json:"inward_issue_key" jsonschema:"The key of the inward issue. Example: 'PROJ-123'"`
	OutwardIssueKey string `json:"outward_issue_key" jsonschema:"The key of the outward issue. Example: 'PROJ-456'"`
	Comment         string `json:"comment,omitempty" jsonschema:"Optional comment added to the link"`
}

type JiraRemoveIssueLinkArgs struct {
	LinkID string `json:"link_id" jsonschema:"The id of the link to remove"`
}

type JiraBatchIssue struct {
	ProjectKey  string   `json:"project_key" jsonschema:"The project key. Example: 'PROJ'"`
	Summary     string   `json:"summary" jsonschema:"Summary (title) of the issue"`
	IssueType   string   `json:"issue_type" jsonschema:"Issue type. Example: 'Task'"`
	Description string   `json:"description,omitempty" jsonschema:"Issue description"`
	Assignee    string   `json:"assignee,omitempty" jsonschema:"Assignee username (Server/Data Center) or account id (Cloud)"`
	Priority    string   `json:"priority,omitempty" jsonschema:"Priority name"`
	Labels      []string `json:"labels,omitempty" jsonschema:"Labels to add to the issue"`
}

type JiraBatchCreateIssuesArgs struct {
	Issues       []JiraBatchIssue `json:"issues" jsonschema:"Issues to create, in order"`
	ValidateOnly bool             `json:"validate_only,omitempty" jsonschema:"Only validate the issues without creating them"`
}

func (p *AtlassianToolProvider) registerJiraTools(mcpServer *mcp.Server) {
	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_get_issue",
		Description: "Get details of a Jira issue including its comments",
	}, p.toolJiraGetIssue)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_search",
		Description: "Search Jira issues using JQL (Jira Query Language)",
	}, p.toolJiraSearch)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_get_project_issues",
		Description: "Get the most recently created issues of a Jira project",
	}, p.toolJiraGetProjectIssues)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_get_transitions",
		Description: "Get the workflow transitions available for a Jira issue",
	}, p.toolJiraGetTransitions)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_search_fields",
		Description: "Search Jira fields, including custom fields, by keyword",
	}, p.toolJiraSearchFields)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_get_epic_issues",
		Description: "Get the issues that belong to a Jira epic",
	}, p.toolJiraGetEpicIssues)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_get_link_types",
		Description: "Get the issue link types defined in Jira",
	}, p.toolJiraGetLinkTypes)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_create_issue",
		Description: "Create a new Jira issue",
		Write:       true,
	}, p.toolJiraCreateIssue)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_update_issue",
		Description: "Update fields of an existing Jira issue",
		Write:       true,
	}, p.toolJiraUpdateIssue)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_delete_issue",
		Description: "Delete an existing Jira issue",
		Write:       true,
	}, p.toolJiraDeleteIssue)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_add_comment",
		Description: "Add a comment to a Jira issue",
		Write:       true,
	}, p.toolJiraAddComment)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_transition_issue",
		Description: "Transition a Jira issue to a new status",
		Write:       true,
	}, p.toolJiraTransitionIssue)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_link_to_epic",
		Description: "Link an existing Jira issue to an epic",
		Write:       true,
	}, p.toolJiraLinkToEpic)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_create_issue_link",
		Description: "Create a link between two Jira issues",
		Write:       true,
	}, p.toolJiraCreateIssueLink)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_remove_issue_link",
		Description: "Remove a link between two Jira issues",
		Write:       true,
	}, p.toolJiraRemoveIssueLink)

	registerTool(p, mcpServer, MCPTool{
		Name:        "jira_batch_create_issues",
		Description: "Create multiple Jira issues in one call",
		Write:       true,
	}, p.toolJiraBatchCreateIssues)
}

func (p *AtlassianToolProvider) toolJiraGetIssue(ctx context.Context, args JiraGetIssueArgs) (string, error) {
	issue, err := p.jira.GetIssue(ctx, args.IssueKey)
	if err != nil {
		return "", err
	}
	return formatJSON(issue)
}

func (p *AtlassianToolProvider) toolJiraSearch(ctx context.Context, args JiraSearchArgs) (string, error) {
	if args.JQL == "" {
		return "", fmt.Errorf("jql is required")
	}

	issues, err := p.jira.Search(ctx, args.JQL, atlassian.SearchOptions{
		Limit:  args.Limit,
		Filter: filterOverride(args.ProjectsFilter),
	})
	if err != nil {
		return "", err
	}
	return formatJSON(issues)
}

func (p *AtlassianToolProvider) toolJiraGetProjectIssues(ctx context.Context, args JiraGetProjectIssuesArgs) (string, error) {
	issues, err := p.jira.ProjectIssues(ctx, args.ProjectKey, args.Limit)
	if err != nil {
		return "", err
	}
	return formatJSON(issues)
}

func (p *AtlassianToolProvider) toolJiraGetTransitions(ctx context.Context, args JiraGetTransitionsArgs) (string, error) {
	transitions, err := p.jira.Transitions(ctx, args.IssueKey)
	if err != nil {
		return "", err
	}
	return formatJSON(transitions)
}

func (p *AtlassianToolProvider) toolJiraCreateIssue(ctx context.Context, args JiraCreateIssueArgs) (string, error) {
	issue, err := p.jira.CreateIssue(ctx, atlassian.IssueInput{
		ProjectKey:  args.ProjectKey,
		Summary:     args.Summary,
		IssueType:   args.IssueType,
		Description: args.Description,
		Assignee:    args.Assignee,
		Priority:    args.Priority,
		Labels:      args.Labels,
	})
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": "Issue created successfully", "issue": issue})
}

func (p *AtlassianToolProvider) toolJiraUpdateIssue(ctx context.Context, args JiraUpdateIssueArgs) (string, error) {
	issue, err := p.jira.UpdateIssue(ctx, args.IssueKey, args.Fields)
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": "Issue updated successfully", "issue": issue})
}

func (p *AtlassianToolProvider) toolJiraDeleteIssue(ctx context.Context, args JiraDeleteIssueArgs) (string, error) {
	if err := p.jira.DeleteIssue(ctx, args.IssueKey); err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": fmt.Sprintf("Issue %s has been deleted successfully.", args.IssueKey)})
}

func (p *AtlassianToolProvider) toolJiraAddComment(ctx context.Context, args JiraAddCommentArgs) (string, error) {
	comment, err := p.jira.AddComment(ctx, args.IssueKey, args.Comment)
	if err != nil {
		return "", err
	}
	return formatJSON(comment)
}

func (p *AtlassianToolProvider) toolJiraTransitionIssue(ctx context.Context, args JiraTransitionIssueArgs) (string, error) {
	issue, err := p.jira.TransitionIssue(ctx, args.IssueKey, args.TransitionID)
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": fmt.Sprintf("Issue %s transitioned successfully", args.IssueKey), "issue": issue})
}

func (p *AtlassianToolProvider) toolJiraSearchFields(ctx context.Context, args JiraSearchFieldsArgs) (string, error) {
	fields, err := p.jira.SearchFields(ctx, args.Keyword, args.Limit)
	if err != nil {
		return "", err
	}
	return formatJSON(fields)
}

func (p *AtlassianToolProvider) toolJiraGetEpicIssues(ctx context.Context, args JiraGetEpicIssuesArgs) (string, error) {
	issues, err := p.jira.EpicIssues(ctx, args.EpicKey, args.Limit)
	if err != nil {
		return "", err
	}
	return formatJSON(issues)
}

func (p *AtlassianToolProvider) toolJiraGetLinkTypes(ctx context.Context, _ JiraGetLinkTypesArgs) (string, error) {
	linkTypes, err := p.jira.LinkTypes(ctx)
	if err != nil {
		return "", err
	}
	return formatJSON(linkTypes)
}

func (p *AtlassianToolProvider) toolJiraLinkToEpic(ctx context.Context, args JiraLinkToEpicArgs) (string, error) {
	issue, err := p.jira.LinkToEpic(ctx, args.IssueKey, args.EpicKey)
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{
		"message": fmt.Sprintf("Issue %s has been linked to epic %s.", args.IssueKey, args.EpicKey),
		"issue":   issue,
	})
}

func (p *AtlassianToolProvider) toolJiraCreateIssueLink(ctx context.Context, args JiraCreateIssueLinkArgs) (string, error) {
	err := p.jira.CreateIssueLink(ctx, atlassian.IssueLinkInput{
		LinkType:        args.LinkType,
		InwardIssueKey:  args.InwardIssueKey,
		OutwardIssueKey: args.OutwardIssueKey,
		Comment:         args.Comment,
	})
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{
		"message": fmt.Sprintf("Link of type %s created between %s and %s", args.LinkType, args.InwardIssueKey, args.OutwardIssueKey),
	})
}

func (p *AtlassianToolProvider) toolJiraRemoveIssueLink(ctx context.Context, args JiraRemoveIssueLinkArgs) (string, error) {
	if err := p.jira.RemoveIssueLink(ctx, args.LinkID); err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": fmt.Sprintf("Link %s has been removed.", args.LinkID)})
}

func (p *AtlassianToolProvider) toolJiraBatchCreateIssues(ctx context.Context, args JiraBatchCreateIssuesArgs) (string, error) {
	inputs := make([]atlassian.IssueInput, 0, len(args.Issues))
	for _, issue := range args.Issues {
		inputs = append(inputs, atlassian.IssueInput{
			ProjectKey:  issue.ProjectKey,
			Summary:     issue.Summary,
			IssueType:   issue.IssueType,
			Description: issue.Description,
			Assignee:    issue.Assignee,
			Priority:    issue.Priority,
			Labels:      issue.Labels,
		})
	}

	created, err := p.jira.BatchCreateIssues(ctx, inputs, args.ValidateOnly)
	if err != nil {
		if len(created) > 0 {
			return "", fmt.Errorf("%w (already created: %s)", err, issueKeys(created))
		}
		return "", err
	}

	message := "Issues created successfully"
	if args.ValidateOnly {
		message = fmt.Sprintf("Validated %d issues without creating them", len(inputs))
	}
	return formatJSON(map[string]any{"message": message, "issues": created})
}

func issueKeys(issues []atlassian.Issue) string {
	keys := make([]string, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	return strings.Join(keys, ", ")
}
