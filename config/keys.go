// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import "strings"

// Key identifies a raw setting. Keys are lower snake case and namespaced by
// product prefix (jira_, confluence_) or unprefixed for global settings.
type Key string

const (
	KeyTransport    Key = "transport"
	KeyPort         Key = "port"
	KeyReadOnlyMode Key = "read_only_mode"
	KeyVerbose      Key = "verbose"
	KeyVeryVerbose  Key = "very_verbose"

	KeyJiraURL            Key = "jira_url"
	KeyJiraUsername       Key = "jira_username"
	KeyJiraAPIToken       Key = "jira_api_token"
	KeyJiraPersonalToken  Key = "jira_personal_token"
	KeyJiraSSLVerify      Key = "jira_ssl_verify"
	KeyJiraProjectsFilter Key = "jira_projects_filter"

	KeyConfluenceURL           Key = "confluence_url"
	KeyConfluenceUsername      Key = "confluence_username"
	KeyConfluenceAPIToken      Key = "confluence_api_token"
	KeyConfluencePersonalToken Key = "confluence_personal_token"
	KeyConfluenceSSLVerify     Key = "confluence_ssl_verify"
	KeyConfluenceSpacesFilter  Key = "confluence_spaces_filter"
)

// keyDescriptor ties a key to its environment variable and CLI flag names.
type keyDescriptor struct {
	key  Key
	env  string
	flag string
}

// knownKeys is the full set of recognized settings, in display order.
var knownKeys = []keyDescriptor{
	{key: KeyTransport},
	{key: KeyPort},
	{key: KeyReadOnlyMode, flag: "read-only"},
	{key: KeyVerbose, env: "MCP_VERBOSE"},
	{key: KeyVeryVerbose, env: "MCP_VERY_VERBOSE"},

	{key: KeyJiraURL},
	{key: KeyJiraUsername},
	{key: KeyJiraAPIToken, flag: "jira-token"},
	{key: KeyJiraPersonalToken},
	{key: KeyJiraSSLVerify},
	{key: KeyJiraProjectsFilter},

	{key: KeyConfluenceURL},
	{key: KeyConfluenceUsername},
	{key: KeyConfluenceAPIToken, flag: "confluence-token"},
	{key: KeyConfluencePersonalToken},
	{key: KeyConfluenceSSLVerify},
	{key: KeyConfluenceSpacesFilter},
}

// Keys returns every recognized setting key.
func Keys() []Key {
	keys := make([]Key, 0, len(knownKeys))
	for _, d := range knownKeys {
		keys = append(keys, d.key)
	}
	return keys
}

// isKnown reports whether k is a recognized setting key.
func isKnown(k Key) bool {
	_, ok := lookupDescriptor(k)
	return ok
}

// EnvName returns the environment variable that feeds k.
func (k Key) EnvName() string {
	if d, ok := lookupDescriptor(k); ok && d.env != "" {
		return d.env
	}
	return strings.ToUpper(string(k))
}

// FlagName returns the long CLI flag name that feeds k.
func (k Key) FlagName() string {
	if d, ok := lookupDescriptor(k); ok && d.flag != "" {
		return d.flag
	}
	return strings.ReplaceAll(string(k), "_", "-")
}

func (k Key) String() string {
	return string(k)
}

func lookupDescriptor(k Key) (keyDescriptor, bool) {
	for _, d := range knownKeys {
		if d.key == k {
			return d, true
		}
	}
	return keyDescriptor{}, false
}
