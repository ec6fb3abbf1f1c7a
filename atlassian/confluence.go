// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package atlassian

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

const (
	defaultConfluenceLimit = 10
	maxConfluenceLimit     = 50
	defaultChildrenLimit   = 25

	contentExpand   = "space,version,body.storage"
	summaryExpand   = "space,version"
	ancestorsExpand = "ancestors,ancestors.space,ancestors.version"
)

// Page is the simplified view of a Confluence page.
type Page struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	SpaceKey string `json:"space_key,omitempty"`
	Space    string `json:"space_name,omitempty"`
	URL      string `json:"url,omitempty"`
	Version  int    `json:"version,omitempty"`
	Updated  string `json:"last_modified,omitempty"`
	Author   string `json:"author,omitempty"`
	Content  string `json:"content,omitempty"`
}

// PageInput describes a page to create or the new state of a page.
type PageInput struct {
	SpaceKey string
	Title    string
	Body     string
	ParentID string

	// Update only.
	MinorEdit     bool
	VersionNotice string
}

type confluenceContent struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Space  struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"space"`
	Version struct {
		Number int    `json:"number"`
		When   string `json:"when"`
		By     struct {
			DisplayName string `json:"displayName"`
		} `json:"by"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
	Links struct {
		WebUI string `json:"webui"`
	} `json:"_links"`
	Ancestors []confluenceContent `json:"ancestors"`
}

type confluenceContentList struct {
	Results []confluenceContent `json:"results"`
}

type storageBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type contentRequest struct {
	ID        string                 `json:"id,omitempty"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Space     *spaceRef              `json:"space,omitempty"`
	Ancestors []contentRef           `json:"ancestors,omitempty"`
	Version   *versionRef            `json:"version,omitempty"`
	Body      map[string]storageBody `json:"body"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type contentRef struct {
	ID string `json:"id"`
}

type versionRef struct {
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit"`
	Message   string `json:"message,omitempty"`
}

// ConfluenceClient talks to a single Confluence instance.
type ConfluenceClient struct {
	client  *resty.Client
	baseURL string
	filter  config.EntityFilter
}

// NewConfluenceClient builds a Confluence client for pc.
func NewConfluenceClient(pc *config.ProductConfig) (*ConfluenceClient, error) {
	if pc == nil || pc.Product != config.ProductConfluence {
		return nil, errors.New("confluence client requires a resolved confluence configuration")
	}

	baseURL := pc.BaseURL.String()
	client := resty.NewWithClient(NewHTTPClient(pc)).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")

	switch auth := pc.Auth.(type) {
	case config.BasicAuth:
		client.SetBasicAuth(auth.Username, auth.Token)
	case config.PersonalAccessToken:
		client.SetAuthToken(auth.Token)
	}

	return &ConfluenceClient{
		client:  client,
		baseURL: baseURL,
		filter:  pc.Filter,
	}, nil
}

// Filter returns the configured space filter.
func (c *ConfluenceClient) Filter() config.EntityFilter {
	return c.filter
}

// Search runs a CQL query scoped to the space filter. Free text is searched
// with siteSearch, falling back to text search on instances that lack it.
func (c *ConfluenceClient) Search(ctx context.Context, query string, opts SearchOptions) ([]Page, error) {
	filter := c.filter
	if opts.Filter != nil {
		filter = *opts.Filter
	}
	limit := clampLimit(opts.Limit, defaultConfluenceLimit, maxConfluenceLimit)

	if query != "" && IsPlainText(query) {
		quoted := QuoteQueryString(query)
		pages, err := c.search(ctx, "siteSearch ~ "+quoted, filter, limit)
		if err == nil {
			return pages, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode >= 500 {
			return nil, err
		}
		return c.search(ctx, "text ~ "+quoted, filter, limit)
	}

	return c.search(ctx, query, filter, limit)
}

func (c *ConfluenceClient) search(ctx context.Context, cql string, filter config.EntityFilter, limit int) ([]Page, error) {
	scoped, ok := ScopeQuery(cql, "space", filter)
	if !ok {
		return []Page{}, nil
	}

	var list confluenceContentList
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"cql":    scoped,
			"limit":  strconv.Itoa(limit),
			"expand": summaryExpand,
		}).
		SetResult(&list).
		Get("rest/api/content/search")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to search content: %w", err)
	}

	return c.simplifyAll(list.Results, false), nil
}

// GetPage fetches a page including its storage-format body.
func (c *ConfluenceClient) GetPage(ctx context.Context, pageID string) (*Page, error) {
	content, err := c.getContent(ctx, pageID, contentExpand)
	if err != nil {
		return nil, err
	}
	page := c.simplify(content, true)
	return &page, nil
}

// PageAncestors lists the ancestors of a page, root first.
func (c *ConfluenceClient) PageAncestors(ctx context.Context, pageID string) ([]Page, error) {
	content, err := c.getContent(ctx, pageID, ancestorsExpand)
	if err != nil {
		return nil, err
	}
	return c.simplifyAll(content.Ancestors, false), nil
}

// PageChildren lists the direct child pages of parentID.
func (c *ConfluenceClient) PageChildren(ctx context.Context, parentID string, start, limit int, includeContent bool) ([]Page, error) {
	if err := validatePageID(parentID); err != nil {
		return nil, err
	}

	expand := summaryExpand
	if includeContent {
		expand = contentExpand
	}
	if start < 0 {
		start = 0
	}

	var list confluenceContentList
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", parentID).
		SetQueryParams(map[string]string{
			"start":  strconv.Itoa(start),
			"limit":  strconv.Itoa(clampLimit(limit, defaultChildrenLimit, maxConfluenceLimit)),
			"expand": expand,
		}).
		SetResult(&list).
		Get("rest/api/content/{id}/child/page")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get children of page %s: %w", parentID, err)
	}

	return c.simplifyAll(list.Results, includeContent), nil
}

// Comments lists the comments on a page.
func (c *ConfluenceClient) Comments(ctx context.Context, pageID string) ([]Comment, error) {
	if err := validatePageID(pageID); err != nil {
		return nil, err
	}

	var list confluenceContentList
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		SetQueryParams(map[string]string{
			"expand": "body.storage,version",
			"depth":  "all",
		}).
		SetResult(&list).
		Get("rest/api/content/{id}/child/comment")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get comments of page %s: %w", pageID, err)
	}

	comments := make([]Comment, 0, len(list.Results))
	for _, result := range list.Results {
		comments = append(comments, Comment{
			ID:      result.ID,
			Author:  result.Version.By.DisplayName,
			Created: result.Version.When,
			Body:    result.Body.Storage.Value,
		})
	}
	return comments, nil
}

// CreatePage creates a page from a storage-format body.
func (c *ConfluenceClient) CreatePage(ctx context.Context, input PageInput) (*Page, error) {
	if input.SpaceKey == "" || input.Title == "" {
		return nil, errors.New("space key and title are required")
	}
	if !c.filter.Allows(input.SpaceKey) {
		return nil, fmt.Errorf("space %s: %w", input.SpaceKey, ErrFilteredOut)
	}

	body := contentRequest{
		Type:  "page",
		Title: input.Title,
		Space: &spaceRef{Key: input.SpaceKey},
		Body:  storage(input.Body),
	}
	if input.ParentID != "" {
		body.Ancestors = []contentRef{{ID: input.ParentID}}
	}

	var created confluenceContent
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post("rest/api/content")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	return c.GetPage(ctx, created.ID)
}

// UpdatePage replaces the title and body of a page, bumping its version.
func (c *ConfluenceClient) UpdatePage(ctx context.Context, pageID string, input PageInput) (*Page, error) {
	if input.Title == "" {
		return nil, errors.New("title is required")
	}

	current, err := c.getContent(ctx, pageID, "version")
	if err != nil {
		return nil, err
	}

	body := contentRequest{
		ID:    pageID,
		Type:  "page",
		Title: input.Title,
		Version: &versionRef{
			Number:    current.Version.Number + 1,
			MinorEdit: input.MinorEdit,
			Message:   input.VersionNotice,
		},
		Body: storage(input.Body),
	}
	if input.ParentID != "" {
		body.Ancestors = []contentRef{{ID: input.ParentID}}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		SetBody(body).
		Put("rest/api/content/{id}")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to update page %s: %w", pageID, err)
	}

	return c.GetPage(ctx, pageID)
}

// DeletePage moves a page to the trash.
func (c *ConfluenceClient) DeletePage(ctx context.Context, pageID string) error {
	if err := validatePageID(pageID); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		Delete("rest/api/content/{id}")
	if err = c.check(resp, err); err != nil {
		return fmt.Errorf("failed to delete page %s: %w", pageID, err)
	}
	return nil
}

func (c *ConfluenceClient) getContent(ctx context.Context, pageID, expand string) (*confluenceContent, error) {
	if err := validatePageID(pageID); err != nil {
		return nil, err
	}

	var content confluenceContent
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", pageID).
		SetQueryParam("expand", expand).
		SetResult(&content).
		Get("rest/api/content/{id}")
	if err = c.check(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", pageID, err)
	}
	return &content, nil
}

func (c *ConfluenceClient) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return &APIError{Product: config.ProductConfluence, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}

func (c *ConfluenceClient) simplifyAll(results []confluenceContent, withContent bool) []Page {
	pages := make([]Page, 0, len(results))
	for i := range results {
		pages = append(pages, c.simplify(&results[i], withContent))
	}
	return pages
}

func (c *ConfluenceClient) simplify(content *confluenceContent, withContent bool) Page {
	page := Page{
		ID:       content.ID,
		Title:    content.Title,
		Type:     content.Type,
		Status:   content.Status,
		SpaceKey: content.Space.Key,
		Space:    content.Space.Name,
		Version:  content.Version.Number,
		Updated:  content.Version.When,
		Author:   content.Version.By.DisplayName,
	}
	if content.Links.WebUI != "" {
		page.URL = strings.TrimRight(c.baseURL, "/") + content.Links.WebUI
	}
	if withContent {
		page.Content = content.Body.Storage.Value
	}
	return page
}

func storage(value string) map[string]storageBody {
	return map[string]storageBody{
		"storage": {Value: value, Representation: "storage"},
	}
}

func validatePageID(pageID string) error {
	if pageID == "" {
		return errors.New("page id cannot be empty")
	}
	if _, err := strconv.ParseUint(pageID, 10, 64); err != nil {
		return fmt.Errorf("invalid page id %q", pageID)
	}
	return nil
}
