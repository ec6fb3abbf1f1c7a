// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package atlassian contains the Jira and Confluence REST clients used by the
// gateway tools. Clients are built from a resolved config.ProductConfig and
// apply its credentials, TLS policy and entity filter.
package atlassian

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

// DefaultTimeout bounds every request made to a product.
const DefaultTimeout = 30 * time.Second

// ErrFilteredOut is returned when a request targets an entity excluded by
// the active project or space filter.
var ErrFilteredOut = errors.New("excluded by filter")

// APIError is a non-2xx response from a product REST API.
type APIError struct {
	Product    config.Product
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API request failed with status %d: %s", e.Product.DisplayName(), e.StatusCode, truncate(e.Body, 512))
}

// NewHTTPClient returns an HTTP client for pc. Certificate verification is
// skipped only when the resolved config disables it.
func NewHTTPClient(pc *config.ProductConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !pc.SSLVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // operator opt-in for self-signed Server/Data Center
	}

	return &http.Client{
		Transport: transport,
		Timeout:   DefaultTimeout,
	}
}

// clampLimit applies def when limit is unset and caps it at maxLimit.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
