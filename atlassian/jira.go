// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package atlassian

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/andygrunwald/go-jira"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

var validJiraIssueKey = regexp.MustCompile(`^([[:alnum:]]+)-([[:digit:]]+)$`)
var validJiraProjectKey = regexp.MustCompile(`^[[:alnum:]_]+$`)

const (
	defaultJiraLimit  = 10
	maxJiraLimit      = 50
	maxIssueKeyLength = 50

	// Schema of the Epic Link custom field on Server/Data Center.
	epicLinkSchema = "com.pyxis.greenhopper.jira:gh-epic-link"
)

var issueFields = []string{
	"summary",
	"description",
	"status",
	"assignee",
	"reporter",
	"created",
	"updated",
	"issuetype",
	"labels",
	"priority",
	"project",
	"comment",
}

var searchFields = []string{
	"summary",
	"status",
	"assignee",
	"updated",
	"created",
	"issuetype",
	"labels",
	"priority",
	"project",
}

// Issue is the simplified view of a Jira issue returned to MCP clients.
type Issue struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Project     string    `json:"project,omitempty"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	Status      string    `json:"status,omitempty"`
	Priority    string    `json:"priority,omitempty"`
	Assignee    string    `json:"assignee"`
	Reporter    string    `json:"reporter,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	Created     string    `json:"created,omitempty"`
	Updated     string    `json:"updated,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Comment is a Jira or Confluence comment.
type Comment struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Created string `json:"created,omitempty"`
	Body    string `json:"body"`
}

// Transition is a workflow transition available on an issue.
type Transition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ToStatus string `json:"to_status,omitempty"`
}

// Field describes an issue field, system or custom.
type Field struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Custom      bool     `json:"custom"`
	Type        string   `json:"type,omitempty"`
	ClauseNames []string `json:"clause_names,omitempty"`
}

// LinkType is an issue link type such as "Blocks".
type LinkType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// IssueLinkInput describes a link between two issues.
type IssueLinkInput struct {
	LinkType        string
	InwardIssueKey  string
	OutwardIssueKey string
	Comment         string
}

// IssueInput describes an issue to create.
type IssueInput struct {
	ProjectKey  string
	Summary     string
	IssueType   string
	Description string
	Assignee    string
	Priority    string
	Labels      []string
}

// SearchOptions tune a search. A nil Filter uses the configured filter.
type SearchOptions struct {
	Limit  int
	Filter *config.EntityFilter
}

// JiraClient talks to a single Jira instance.
type JiraClient struct {
	client  *jira.Client
	baseURL string
	cloud   bool
	filter  config.EntityFilter
}

// NewJiraClient builds a Jira client for pc.
func NewJiraClient(pc *config.ProductConfig) (*JiraClient, error) {
	if pc == nil || pc.Product != config.ProductJira {
		return nil, errors.New("jira client requires a resolved jira configuration")
	}

	httpClient := NewHTTPClient(pc)
	httpClient.Transport = jiraAuthTransport(pc.Auth, httpClient.Transport)

	client, err := jira.NewClient(httpClient, pc.BaseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	return &JiraClient{
		client:  client,
		baseURL: pc.BaseURL.String(),
		cloud:   pc.IsCloud(),
		filter:  pc.Filter,
	}, nil
}

func jiraAuthTransport(auth config.AuthStrategy, base http.RoundTripper) http.RoundTripper {
	switch a := auth.(type) {
	case config.BasicAuth:
		return &jira.BasicAuthTransport{
			Username:  a.Username,
			Password:  a.Token,
			Transport: base,
		}
	case config.PersonalAccessToken:
		return &jira.PATAuthTransport{
			Token:     a.Token,
			Transport: base,
		}
	}
	return base
}

// Filter returns the configured project filter.
func (c *JiraClient) Filter() config.EntityFilter {
	return c.filter
}

// GetIssue fetches a single issue with its comments.
func (c *JiraClient) GetIssue(ctx context.Context, issueKey string) (*Issue, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}

	issue, resp, err := c.client.Issue.GetWithContext(ctx, issueKey, &jira.GetQueryOptions{
		Fields: strings.Join(issueFields, ","),
	})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to get issue %s", issueKey)
	}

	return c.simplify(issue), nil
}

// Search runs a JQL query scoped to the project filter.
func (c *JiraClient) Search(ctx context.Context, jql string, opts SearchOptions) ([]Issue, error) {
	filter := c.filter
	if opts.Filter != nil {
		filter = *opts.Filter
	}

	scoped, ok := ScopeQuery(jql, "project", filter)
	if !ok {
		return []Issue{}, nil
	}

	issues, resp, err := c.client.Issue.SearchWithContext(ctx, scoped, &jira.SearchOptions{
		MaxResults: clampLimit(opts.Limit, defaultJiraLimit, maxJiraLimit),
		Fields:     searchFields,
	})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to search issues")
	}

	results := make([]Issue, 0, len(issues))
	for i := range issues {
		results = append(results, *c.simplify(&issues[i]))
	}
	return results, nil
}

// ProjectIssues lists the most recently created issues of a project.
func (c *JiraClient) ProjectIssues(ctx context.Context, projectKey string, limit int) ([]Issue, error) {
	if !validJiraProjectKey.MatchString(projectKey) {
		return nil, fmt.Errorf("invalid project key %q", projectKey)
	}
	if !c.filter.Allows(projectKey) {
		return []Issue{}, nil
	}

	jql := "project = " + QuoteQueryString(projectKey) + " ORDER BY created DESC"
	return c.Search(ctx, jql, SearchOptions{Limit: limit})
}

// Transitions lists the transitions currently available on an issue.
func (c *JiraClient) Transitions(ctx context.Context, issueKey string) ([]Transition, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}

	transitions, resp, err := c.client.Issue.GetTransitionsWithContext(ctx, issueKey)
	if err != nil {
		return nil, c.wrap(resp, err, "failed to get transitions for %s", issueKey)
	}

	results := make([]Transition, 0, len(transitions))
	for _, t := range transitions {
		results = append(results, Transition{ID: t.ID, Name: t.Name, ToStatus: t.To.Name})
	}
	return results, nil
}

// CreateIssue creates an issue and returns it as stored by Jira.
func (c *JiraClient) CreateIssue(ctx context.Context, input IssueInput) (*Issue, error) {
	if input.ProjectKey == "" || input.IssueType == "" || input.Summary == "" {
		return nil, errors.New("project key, issue type, and summary are required")
	}
	if !c.filter.Allows(input.ProjectKey) {
		return nil, fmt.Errorf("project %s: %w", input.ProjectKey, ErrFilteredOut)
	}

	fields := &jira.IssueFields{
		Type:        jira.IssueType{Name: input.IssueType},
		Project:     jira.Project{Key: input.ProjectKey},
		Summary:     input.Summary,
		Description: input.Description,
		Labels:      input.Labels,
	}
	if input.Priority != "" {
		fields.Priority = &jira.Priority{Name: input.Priority}
	}
	if input.Assignee != "" {
		fields.Assignee = c.user(input.Assignee)
	}

	created, resp, err := c.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to create issue")
	}

	return c.GetIssue(ctx, created.Key)
}

// UpdateIssue sets the given fields on an issue. Field values are passed to
// the REST API unchanged.
func (c *JiraClient) UpdateIssue(ctx context.Context, issueKey string, fields map[string]any) (*Issue, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("at least one field to update is required")
	}

	resp, err := c.client.Issue.UpdateIssueWithContext(ctx, issueKey, map[string]any{"fields": fields})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to update issue %s", issueKey)
	}

	return c.GetIssue(ctx, issueKey)
}

// DeleteIssue deletes an issue.
func (c *JiraClient) DeleteIssue(ctx context.Context, issueKey string) error {
	if err := validateIssueKey(issueKey); err != nil {
		return err
	}

	resp, err := c.client.Issue.DeleteWithContext(ctx, issueKey)
	if err != nil {
		return c.wrap(resp, err, "failed to delete issue %s", issueKey)
	}
	return nil
}

// AddComment adds a comment to an issue.
func (c *JiraClient) AddComment(ctx context.Context, issueKey, body string) (*Comment, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, errors.New("comment body cannot be empty")
	}

	comment, resp, err := c.client.Issue.AddCommentWithContext(ctx, issueKey, &jira.Comment{Body: body})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to add comment to %s", issueKey)
	}

	return &Comment{
		ID:      comment.ID,
		Author:  comment.Author.DisplayName,
		Created: comment.Created,
		Body:    comment.Body,
	}, nil
}

// TransitionIssue moves an issue through a workflow transition.
func (c *JiraClient) TransitionIssue(ctx context.Context, issueKey, transitionID string) (*Issue, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}
	if transitionID == "" {
		return nil, errors.New("transition id is required")
	}

	resp, err := c.client.Issue.DoTransitionWithContext(ctx, issueKey, transitionID)
	if err != nil {
		return nil, c.wrap(resp, err, "failed to transition issue %s", issueKey)
	}

	return c.GetIssue(ctx, issueKey)
}

// SearchFields lists the fields whose id, name, or JQL clause names contain
// keyword, ignoring case. An empty keyword lists fields in server order.
func (c *JiraClient) SearchFields(ctx context.Context, keyword string, limit int) ([]Field, error) {
	fields, resp, err := c.client.Field.GetListWithContext(ctx)
	if err != nil {
		return nil, c.wrap(resp, err, "failed to list fields")
	}

	limit = clampLimit(limit, defaultJiraLimit, maxJiraLimit)
	keyword = strings.ToLower(strings.TrimSpace(keyword))

	results := make([]Field, 0, limit)
	for _, f := range fields {
		if len(results) == limit {
			break
		}
		if keyword != "" && !fieldMatches(f, keyword) {
			continue
		}
		results = append(results, Field{
			ID:          f.ID,
			Name:        f.Name,
			Custom:      f.Custom,
			Type:        f.Schema.Type,
			ClauseNames: f.ClauseNames,
		})
	}
	return results, nil
}

func fieldMatches(f jira.Field, keyword string) bool {
	if strings.Contains(strings.ToLower(f.ID), keyword) || strings.Contains(strings.ToLower(f.Name), keyword) {
		return true
	}
	for _, clause := range f.ClauseNames {
		if strings.Contains(strings.ToLower(clause), keyword) {
			return true
		}
	}
	return false
}

// EpicIssues lists the issues that belong to an epic. Cloud tracks epic
// membership through the parent field, Server/Data Center through the Epic
// Link custom field.
func (c *JiraClient) EpicIssues(ctx context.Context, epicKey string, limit int) ([]Issue, error) {
	if err := validateIssueKey(epicKey); err != nil {
		return nil, err
	}

	field := "parent"
	if !c.cloud {
		field = QuoteQueryString("Epic Link")
	}
	jql := field + " = " + QuoteQueryString(epicKey) + " ORDER BY created DESC"
	return c.Search(ctx, jql, SearchOptions{Limit: limit})
}

// LinkToEpic makes issueKey a member of epicKey.
func (c *JiraClient) LinkToEpic(ctx context.Context, issueKey, epicKey string) (*Issue, error) {
	if err := validateIssueKey(issueKey); err != nil {
		return nil, err
	}
	if err := validateIssueKey(epicKey); err != nil {
		return nil, err
	}

	var fields map[string]any
	if c.cloud {
		fields = map[string]any{"parent": map[string]string{"key": epicKey}}
	} else {
		fieldID, err := c.epicLinkField(ctx)
		if err != nil {
			return nil, err
		}
		fields = map[string]any{fieldID: epicKey}
	}

	resp, err := c.client.Issue.UpdateIssueWithContext(ctx, issueKey, map[string]any{"fields": fields})
	if err != nil {
		return nil, c.wrap(resp, err, "failed to link %s to epic %s", issueKey, epicKey)
	}

	return c.GetIssue(ctx, issueKey)
}

func (c *JiraClient) epicLinkField(ctx context.Context) (string, error) {
	fields, resp, err := c.client.Field.GetListWithContext(ctx)
	if err != nil {
		return "", c.wrap(resp, err, "failed to list fields")
	}
	for _, f := range fields {
		if f.Schema.Custom == epicLinkSchema {
			return f.ID, nil
		}
	}
	return "", errors.New("no Epic Link field is defined on this instance")
}

// CreateIssueLink links two issues with the named link type.
func (c *JiraClient) CreateIssueLink(ctx context.Context, input IssueLinkInput) error {
	if input.LinkType == "" {
		return errors.New("link type is required")
	}
	if err := validateIssueKey(input.InwardIssueKey); err != nil {
		return err
	}
	if err := validateIssueKey(input.OutwardIssueKey); err != nil {
		return err
	}

	link := &jira.IssueLink{
		Type:         jira.IssueLinkType{Name: input.LinkType},
		InwardIssue:  &jira.Issue{Key: input.InwardIssueKey},
		OutwardIssue: &jira.Issue{Key: input.OutwardIssueKey},
	}
	if strings.TrimSpace(input.Comment) != "" {
		link.Comment = &jira.Comment{Body: input.Comment}
	}

	resp, err := c.client.Issue.AddLinkWithContext(ctx, link)
	if err != nil {
		return c.wrap(resp, err, "failed to link %s to %s", input.InwardIssueKey, input.OutwardIssueKey)
	}
	return nil
}

// RemoveIssueLink deletes an issue link by id.
func (c *JiraClient) RemoveIssueLink(ctx context.Context, linkID string) error {
	if _, err := strconv.ParseUint(linkID, 10, 64); err != nil {
		return fmt.Errorf("invalid link id %q", linkID)
	}

	req, err := c.client.NewRequestWithContext(ctx, http.MethodDelete, "rest/api/2/issueLink/"+linkID, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req, nil)
	if err != nil {
		return c.wrap(resp, err, "failed to remove issue link %s", linkID)
	}
	_ = resp.Body.Close()
	return nil
}

// LinkTypes lists the issue link types defined on the instance.
func (c *JiraClient) LinkTypes(ctx context.Context) ([]LinkType, error) {
	req, err := c.client.NewRequestWithContext(ctx, http.MethodGet, "rest/api/2/issueLinkType", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// The endpoint wraps the list in an object.
	var list struct {
		IssueLinkTypes []jira.IssueLinkType `json:"issueLinkTypes"`
	}
	resp, err := c.client.Do(req, &list)
	if err != nil {
		return nil, c.wrap(resp, err, "failed to list issue link types")
	}

	results := make([]LinkType, 0, len(list.IssueLinkTypes))
	for _, t := range list.IssueLinkTypes {
		results = append(results, LinkType{ID: t.ID, Name: t.Name, Inward: t.Inward, Outward: t.Outward})
	}
	return results, nil
}

// BatchCreateIssues validates every input before creating any issue, then
// creates them in order. With validateOnly no issue is created. On a failed
// create the issues already created are returned with the error.
func (c *JiraClient) BatchCreateIssues(ctx context.Context, inputs []IssueInput, validateOnly bool) ([]Issue, error) {
	if len(inputs) == 0 {
		return nil, errors.New("at least one issue is required")
	}
	for i, input := range inputs {
		if input.ProjectKey == "" || input.IssueType == "" || input.Summary == "" {
			return nil, fmt.Errorf("issue %d: project key, issue type, and summary are required", i)
		}
		if !c.filter.Allows(input.ProjectKey) {
			return nil, fmt.Errorf("issue %d: project %s: %w", i, input.ProjectKey, ErrFilteredOut)
		}
	}
	if validateOnly {
		return []Issue{}, nil
	}

	created := make([]Issue, 0, len(inputs))
	for i, input := range inputs {
		issue, err := c.CreateIssue(ctx, input)
		if err != nil {
			return created, fmt.Errorf("issue %d: %w", i, err)
		}
		created = append(created, *issue)
	}
	return created, nil
}

// user builds an assignee reference. Cloud identifies users by account id,
// Server/Data Center by username.
func (c *JiraClient) user(name string) *jira.User {
	if c.cloud {
		return &jira.User{AccountID: name}
	}
	return &jira.User{Name: name}
}

func (c *JiraClient) simplify(issue *jira.Issue) *Issue {
	result := &Issue{
		Key: issue.Key,
		URL: strings.TrimRight(c.baseURL, "/") + "/browse/" + issue.Key,
	}

	f := issue.Fields
	if f == nil {
		return result
	}

	result.Project = f.Project.Key
	result.Summary = f.Summary
	result.Description = f.Description
	result.Type = f.Type.Name
	result.Labels = f.Labels
	result.Assignee = "Unassigned"
	if f.Status != nil {
		result.Status = f.Status.Name
	}
	if f.Priority != nil {
		result.Priority = f.Priority.Name
	}
	if f.Assignee != nil {
		result.Assignee = f.Assignee.DisplayName
	}
	if f.Reporter != nil {
		result.Reporter = f.Reporter.DisplayName
	}
	if created := time.Time(f.Created); !created.IsZero() {
		result.Created = created.Format(time.RFC3339)
	}
	if updated := time.Time(f.Updated); !updated.IsZero() {
		result.Updated = updated.Format(time.RFC3339)
	}
	if f.Comments != nil {
		for _, comment := range f.Comments.Comments {
			if comment == nil {
				continue
			}
			result.Comments = append(result.Comments, Comment{
				ID:      comment.ID,
				Author:  comment.Author.DisplayName,
				Created: comment.Created,
				Body:    comment.Body,
			})
		}
	}
	return result
}

func (c *JiraClient) wrap(resp *jira.Response, err error, format string, args ...any) error {
	if resp != nil && resp.Response != nil && resp.StatusCode >= http.StatusBadRequest {
		// go-jira has already folded the response body into err
		err = &APIError{Product: config.ProductJira, StatusCode: resp.StatusCode, Body: err.Error()}
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func validateIssueKey(issueKey string) error {
	if issueKey == "" {
		return errors.New("issue key cannot be empty")
	}
	if len(issueKey) > maxIssueKeyLength {
		return errors.New("issue key is too long")
	}
	if !validJiraIssueKey.MatchString(issueKey) {
		return fmt.Errorf("invalid issue key format %q", issueKey)
	}
	return nil
}
