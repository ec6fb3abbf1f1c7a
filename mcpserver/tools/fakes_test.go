// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package tools

import (
	"context"
	"errors"

	"github.com/mattermost/mattermost-mcp-atlassian/atlassian"
)

type fakeJira struct {
	issues      map[string]*atlassian.Issue
	transitions []atlassian.Transition
	err         error

	lastJQL     string
	lastOptions atlassian.SearchOptions
	created     []atlassian.IssueInput
	deleted     []string
	links       []atlassian.IssueLinkInput
	removed     []string
	epicLinks   map[string]string
	validated   bool
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		issues: map[string]*atlassian.Issue{
			"PROJ-1": {Key: "PROJ-1", Summary: "Broken login", Status: "Open", Assignee: "Unassigned"},
		},
		transitions: []atlassian.Transition{{ID: "31", Name: "Done", ToStatus: "Closed"}},
	}
}

func (f *fakeJira) GetIssue(_ context.Context, issueKey string) (*atlassian.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	issue, ok := f.issues[issueKey]
	if !ok {
		return nil, errors.New("issue not found")
	}
	return issue, nil
}

func (f *fakeJira) Search(_ context.Context, jql string, opts atlassian.SearchOptions) ([]atlassian.Issue, error) {
	f.lastJQL = jql
	f.lastOptions = opts
	if f.err != nil {
		return nil, f.err
	}
	return []atlassian.Issue{*f.issues["PROJ-1"]}, nil
}

func (f *fakeJira) ProjectIssues(_ context.Context, projectKey string, _ int) ([]atlassian.Issue, error) {
	if projectKey != "PROJ" {
		return []atlassian.Issue{}, nil
	}
	return []atlassian.Issue{*f.issues["PROJ-1"]}, nil
}

func (f *fakeJira) Transitions(_ context.Context, _ string) ([]atlassian.Transition, error) {
	return f.transitions, f.err
}

func (f *fakeJira) CreateIssue(_ context.Context, input atlassian.IssueInput) (*atlassian.Issue, error) {
	f.created = append(f.created, input)
	return &atlassian.Issue{Key: input.ProjectKey + "-2", Summary: input.Summary}, nil
}

func (f *fakeJira) UpdateIssue(ctx context.Context, issueKey string, _ map[string]any) (*atlassian.Issue, error) {
	return f.GetIssue(ctx, issueKey)
}

func (f *fakeJira) DeleteIssue(_ context.Context, issueKey string) error {
	f.deleted = append(f.deleted, issueKey)
	return f.err
}

func (f *fakeJira) AddComment(_ context.Context, _ string, body string) (*atlassian.Comment, error) {
	return &atlassian.Comment{ID: "1", Author: "Bot", Body: body}, nil
}

func (f *fakeJira) TransitionIssue(ctx context.Context, issueKey, _ string) (*atlassian.Issue, error) {
	return f.GetIssue(ctx, issueKey)
}

func (f *fakeJira) SearchFields(_ context.Context, keyword string, _ int) ([]atlassian.Field, error) {
	fields := []atlassian.Field{
		{ID: "summary", Name: "Summary", Type: "string"},
		{ID: "customfield_10014", Name: "Epic Link", Custom: true, Type: "any"},
	}
	if keyword == "" {
		return fields, nil
	}
	return fields[1:], nil
}

func (f *fakeJira) EpicIssues(_ context.Context, epicKey string, _ int) ([]atlassian.Issue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []atlassian.Issue{{Key: "PROJ-7", Summary: "Child of " + epicKey}}, nil
}

func (f *fakeJira) LinkToEpic(ctx context.Context, issueKey, epicKey string) (*atlassian.Issue, error) {
	if f.epicLinks == nil {
		f.epicLinks = map[string]string{}
	}
	f.epicLinks[issueKey] = epicKey
	return f.GetIssue(ctx, issueKey)
}

func (f *fakeJira) CreateIssueLink(_ context.Context, input atlassian.IssueLinkInput) error {
	f.links = append(f.links, input)
	return f.err
}

func (f *fakeJira) RemoveIssueLink(_ context.Context, linkID string) error {
	f.removed = append(f.removed, linkID)
	return f.err
}

func (f *fakeJira) LinkTypes(_ context.Context) ([]atlassian.LinkType, error) {
	return []atlassian.LinkType{{ID: "10000", Name: "Blocks", Inward: "is blocked by", Outward: "blocks"}}, f.err
}

func (f *fakeJira) BatchCreateIssues(ctx context.Context, inputs []atlassian.IssueInput, validateOnly bool) ([]atlassian.Issue, error) {
	if validateOnly {
		f.validated = true
		return []atlassian.Issue{}, nil
	}
	created := make([]atlassian.Issue, 0, len(inputs))
	for _, input := range inputs {
		if input.Summary == "" {
			return created, errors.New("summary is required")
		}
		issue, _ := f.CreateIssue(ctx, input)
		created = append(created, *issue)
	}
	return created, nil
}

type fakeConfluence struct {
	lastQuery   string
	lastOptions atlassian.SearchOptions
	deleted     []string
}

func (f *fakeConfluence) Search(_ context.Context, query string, opts atlassian.SearchOptions) ([]atlassian.Page, error) {
	f.lastQuery = query
	f.lastOptions = opts
	return []atlassian.Page{{ID: "123", Title: "Runbook", SpaceKey: "DOC"}}, nil
}

func (f *fakeConfluence) GetPage(_ context.Context, pageID string) (*atlassian.Page, error) {
	return &atlassian.Page{ID: pageID, Title: "Runbook", Content: "<p>steps</p>"}, nil
}

func (f *fakeConfluence) PageChildren(_ context.Context, parentID string, _, _ int, _ bool) ([]atlassian.Page, error) {
	return []atlassian.Page{{ID: "124", Title: "Child of " + parentID}}, nil
}

func (f *fakeConfluence) PageAncestors(_ context.Context, _ string) ([]atlassian.Page, error) {
	return []atlassian.Page{{ID: "1", Title: "Home"}, {ID: "12", Title: "Operations"}}, nil
}

func (f *fakeConfluence) Comments(_ context.Context, _ string) ([]atlassian.Comment, error) {
	return []atlassian.Comment{{ID: "9", Author: "Reader", Body: "nice"}}, nil
}

func (f *fakeConfluence) CreatePage(_ context.Context, input atlassian.PageInput) (*atlassian.Page, error) {
	return &atlassian.Page{ID: "200", Title: input.Title, SpaceKey: input.SpaceKey}, nil
}

func (f *fakeConfluence) UpdatePage(_ context.Context, pageID string, input atlassian.PageInput) (*atlassian.Page, error) {
	return &atlassian.Page{ID: pageID, Title: input.Title, Version: 2}, nil
}

func (f *fakeConfluence) DeletePage(_ context.Context, pageID string) error {
	f.deleted = append(f.deleted, pageID)
	return nil
}
