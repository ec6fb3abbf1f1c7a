// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mattermost/mattermost-mcp-atlassian/atlassian"
)

type ConfluenceSearchArgs struct {
	Query        string `json:"query" jsonschema:"Free text or a CQL query. Example: 'type=page AND space=DEV'"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50). Default is 10"`
	SpacesFilter string `json:"spaces_filter,omitempty" jsonschema:"Comma-separated space keys to search in. Overrides the configured spaces filter"`
}

type ConfluenceGetPageArgs struct {
	PageID string `json:"page_id" jsonschema:"Confluence page id, the number in the page URL"`
}

type ConfluenceGetPageChildrenArgs struct {
	ParentID       string `json:"parent_id" jsonschema:"Id of the parent page"`
	Limit          int    `json:"limit,omitempty" jsonschema:"Maximum number of child pages (1-50). Default is 25"`
	Start          int    `json:"start,omitempty" jsonschema:"Index of the first child page to return, for pagination"`
	IncludeContent bool   `json:"include_content,omitempty" jsonschema:"Whether to include the body of each child page"`
}

type ConfluenceGetPageAncestorsArgs struct {
	PageID string `json:"page_id" jsonschema:"Id of the page whose ancestors to list"`
}

type ConfluenceGetCommentsArgs struct {
	PageID string `json:"page_id" jsonschema:"Confluence page id"`
}

type ConfluenceCreatePageArgs struct {
	SpaceKey string `json:"space_key" jsonschema:"Key of the space to create the page in. Example: 'DEV'"`
	Title    string `json:"title" jsonschema:"Title of the page"`
	Content  string `json:"content" jsonschema:"Page body in Confluence storage format"`
	ParentID string `json:"parent_id,omitempty" jsonschema:"Optional id of the parent page"`
}

type ConfluenceUpdatePageArgs struct {
	PageID         string `json:"page_id" jsonschema:"Id of the page to update"`
	Title          string `json:"title" jsonschema:"New title of the page"`
	Content        string `json:"content" jsonschema:"New page body in Confluence storage format"`
	IsMinorEdit    bool   `json:"is_minor_edit,omitempty" jsonschema:"Whether this is a minor edit"`
	VersionComment string `json:"version_comment,omitempty" jsonschema:"Optional comment for this version"`
	ParentID       string `json:"parent_id,omitempty" jsonschema:"Optional id of a new parent page"`
}

type ConfluenceDeletePageArgs struct {
	PageID string `json:"page_id" jsonschema:"Id of the page to delete"`
}

func (p *AtlassianToolProvider) registerConfluenceTools(mcpServer *mcp.Server) {
	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_search",
		Description: "Search Confluence content with free text or CQL",
	}, p.toolConfluenceSearch)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_get_page",
		Description: "Get a Confluence page with its content and metadata",
	}, p.toolConfluenceGetPage)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_get_page_children",
		Description: "List the child pages of a Confluence page",
	}, p.toolConfluenceGetPageChildren)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_get_page_ancestors",
		Description: "List the ancestor pages of a Confluence page, root first",
	}, p.toolConfluenceGetPageAncestors)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_get_comments",
		Description: "Get the comments on a Confluence page",
	}, p.toolConfluenceGetComments)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_create_page",
		Description: "Create a new Confluence page",
		Write:       true,
	}, p.toolConfluenceCreatePage)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_update_page",
		Description: "Update the title and content of an existing Confluence page",
		Write:       true,
	}, p.toolConfluenceUpdatePage)

	registerTool(p, mcpServer, MCPTool{
		Name:        "confluence_delete_page",
		Description: "Delete an existing Confluence page",
		Write:       true,
	}, p.toolConfluenceDeletePage)
}

func (p *AtlassianToolProvider) toolConfluenceSearch(ctx context.Context, args ConfluenceSearchArgs) (string, error) {
	if args.Query == "" {
		return "", fmt.Errorf("query is required")
	}

	pages, err := p.confluence.Search(ctx, args.Query, atlassian.SearchOptions{
		Limit:  args.Limit,
		Filter: filterOverride(args.SpacesFilter),
	})
	if err != nil {
		return "", err
	}
	return formatJSON(pages)
}

func (p *AtlassianToolProvider) toolConfluenceGetPage(ctx context.Context, args ConfluenceGetPageArgs) (string, error) {
	page, err := p.confluence.GetPage(ctx, args.PageID)
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"metadata": page})
}

func (p *AtlassianToolProvider) toolConfluenceGetPageChildren(ctx context.Context, args ConfluenceGetPageChildrenArgs) (string, error) {
	pages, err := p.confluence.PageChildren(ctx, args.ParentID, args.Start, args.Limit, args.IncludeContent)
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{
		"parent_id": args.ParentID,
		"total":     len(pages),
		"results":   pages,
	})
}

func (p *AtlassianToolProvider) toolConfluenceGetPageAncestors(ctx context.Context, args ConfluenceGetPageAncestorsArgs) (string, error) {
	pages, err := p.confluence.PageAncestors(ctx, args.PageID)
	if err != nil {
		return "", err
	}
	return formatJSON(pages)
}

func (p *AtlassianToolProvider) toolConfluenceGetComments(ctx context.Context, args ConfluenceGetCommentsArgs) (string, error) {
	comments, err := p.confluence.Comments(ctx, args.PageID)
	if err != nil {
		return "", err
	}
	return formatJSON(comments)
}

func (p *AtlassianToolProvider) toolConfluenceCreatePage(ctx context.Context, args ConfluenceCreatePageArgs) (string, error) {
	page, err := p.confluence.CreatePage(ctx, atlassian.PageInput{
		SpaceKey: args.SpaceKey,
		Title:    args.Title,
		Body:     args.Content,
		ParentID: args.ParentID,
	})
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": "Page created successfully", "page": page})
}

func (p *AtlassianToolProvider) toolConfluenceUpdatePage(ctx context.Context, args ConfluenceUpdatePageArgs) (string, error) {
	page, err := p.confluence.UpdatePage(ctx, args.PageID, atlassian.PageInput{
		Title:         args.Title,
		Body:          args.Content,
		ParentID:      args.ParentID,
		MinorEdit:     args.IsMinorEdit,
		VersionNotice: args.VersionComment,
	})
	if err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": "Page updated successfully", "page": page})
}

func (p *AtlassianToolProvider) toolConfluenceDeletePage(ctx context.Context, args ConfluenceDeletePageArgs) (string, error) {
	if err := p.confluence.DeletePage(ctx, args.PageID); err != nil {
		return "", err
	}
	return formatJSON(map[string]any{"message": fmt.Sprintf("Page %s has been deleted successfully.", args.PageID)})
}
