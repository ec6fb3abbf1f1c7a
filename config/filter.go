// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"sort"
	"strings"
)

// EntityFilter restricts which projects (Jira) or spaces (Confluence) are
// visible. The zero value matches every entity. A restricted filter with no
// keys matches nothing. Keys are case-sensitive.
type EntityFilter struct {
	restricted bool
	keys       map[string]struct{}
}

// MatchAllFilter returns the unrestricted filter.
func MatchAllFilter() EntityFilter {
	return EntityFilter{}
}

// NewEntityFilter returns a restricted filter containing keys.
func NewEntityFilter(keys ...string) EntityFilter {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return EntityFilter{restricted: true, keys: set}
}

// ParseEntityFilter parses a comma separated key list into a restricted
// filter.
func ParseEntityFilter(value string) EntityFilter {
	return EntityFilter{restricted: true, keys: parseKeySet(value)}
}

// MatchAll reports whether the filter is unrestricted.
func (f EntityFilter) MatchAll() bool {
	return !f.restricted
}

// MatchesNothing reports whether the filter is restricted to an empty set.
func (f EntityFilter) MatchesNothing() bool {
	return f.restricted && len(f.keys) == 0
}

// Allows reports whether key passes the filter.
func (f EntityFilter) Allows(key string) bool {
	if !f.restricted {
		return true
	}
	_, ok := f.keys[key]
	return ok
}

// Keys returns the filter keys in sorted order, or nil for an unrestricted
// filter.
func (f EntityFilter) Keys() []string {
	if !f.restricted {
		return nil
	}
	keys := make([]string, 0, len(f.keys))
	for k := range f.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f EntityFilter) String() string {
	if !f.restricted {
		return "<all>"
	}
	return "[" + strings.Join(f.Keys(), ",") + "]"
}
