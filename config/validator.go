// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const boolLiterals = "one of true, 1, yes, false, 0, no"

// cloudHostSuffixes are the host suffixes served by Atlassian Cloud.
var cloudHostSuffixes = []string{
	".atlassian.net",
	".jira.com",
	".jira-dev.com",
}

// ParseBool parses the boolean literals accepted for every boolean setting.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized boolean literal %q", value)
}

// lookupBool reads an optional boolean setting. present is false when the
// key is absent.
func lookupBool(raw RawSettings, p Product, k Key) (value bool, present bool, err error) {
	v, ok := raw.Get(k)
	if !ok {
		return false, false, nil
	}
	b, parseErr := ParseBool(v)
	if parseErr != nil {
		return false, true, invalidEnum(p, k, v, boolLiterals)
	}
	return b, true, nil
}

// validateBaseURL checks that rawURL is an absolute http(s) URL with a host.
func validateBaseURL(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q: %w", rawURL, err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("%q must use http or https", rawURL)
	}

	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("%q has no host", rawURL)
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawPath = ""
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed, nil
}

// IsCloudURL reports whether u points at an Atlassian Cloud tenant. Only the
// host is inspected; custom domains in front of Cloud resolve as Server/Data
// Center.
func IsCloudURL(u *url.URL) bool {
	if u == nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || net.ParseIP(host) != nil {
		return false
	}

	for _, suffix := range cloudHostSuffixes {
		if strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// parseKeySet splits a comma separated list, trims each entry and drops
// empty entries.
func parseKeySet(value string) map[string]struct{} {
	keys := make(map[string]struct{})
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keys[part] = struct{}{}
	}
	return keys
}
