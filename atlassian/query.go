// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package atlassian

import (
	"regexp"
	"strings"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

// JQL and CQL share string literal escaping rules.
var queryStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

var orderByClause = regexp.MustCompile(`(?i)(^|\s+)order\s+by\s+`)

// plainTextMarkers identify a query that is already CQL rather than free text.
var plainTextMarkers = []string{"=", "~", ">", "<", " AND ", " OR ", "currentUser()"}

// QuoteQueryString renders s as a quoted JQL/CQL string literal.
func QuoteQueryString(s string) string {
	return `"` + queryStringEscaper.Replace(s) + `"`
}

// IsPlainText reports whether query is free text rather than CQL.
func IsPlainText(query string) bool {
	for _, marker := range plainTextMarkers {
		if strings.Contains(query, marker) {
			return false
		}
	}
	return true
}

// inClause renders `field IN ("A","B")`.
func inClause(field string, keys []string) string {
	quoted := make([]string, 0, len(keys))
	for _, k := range keys {
		quoted = append(quoted, QuoteQueryString(k))
	}
	return field + " IN (" + strings.Join(quoted, ",") + ")"
}

// ScopeQuery restricts query to the entities allowed by filter, matching on
// field (project for JQL, space for CQL). A trailing ORDER BY is kept last.
// ok is false when the filter matches nothing and no request should be made.
func ScopeQuery(query, field string, filter config.EntityFilter) (scoped string, ok bool) {
	query = strings.TrimSpace(query)
	if filter.MatchAll() {
		return query, true
	}
	if filter.MatchesNothing() {
		return "", false
	}

	where, orderBy := splitOrderBy(query)
	clause := inClause(field, filter.Keys())

	if where != "" {
		clause = "(" + where + ") AND " + clause
	}
	if orderBy != "" {
		clause += " " + orderBy
	}
	return clause, true
}

// splitOrderBy separates the final ORDER BY clause from the condition.
// Keywords inside string literals are ignored.
func splitOrderBy(query string) (where, orderBy string) {
	quoted := quotedPositions(query)
	matches := orderByClause.FindAllStringIndex(query, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		start := matches[i][0]
		if quoted[start] {
			continue
		}
		return strings.TrimSpace(query[:start]), strings.TrimSpace(query[start:])
	}
	return query, ""
}

// quotedPositions marks every byte of query that lies inside a single or
// double quoted literal, quotes included. A backslash escapes the next byte.
func quotedPositions(query string) []bool {
	quoted := make([]bool, len(query))
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
			quoted[i] = true
		case quote != 0 && c == '\\' && i+1 < len(query):
			quoted[i] = true
			quoted[i+1] = true
			i++
		case quote != 0:
			quoted[i] = true
			if c == quote {
				quote = 0
			}
		}
	}
	return quoted
}
