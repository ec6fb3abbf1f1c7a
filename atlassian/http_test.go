// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package atlassian

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

func productConfig(t *testing.T, p config.Product, rawURL string, auth config.AuthStrategy) *config.ProductConfig {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return &config.ProductConfig{
		Product:   p,
		BaseURL:   u,
		Auth:      auth,
		SSLVerify: true,
		Filter:    config.MatchAllFilter(),
	}
}

func TestNewHTTPClient(t *testing.T) {
	pc := productConfig(t, config.ProductJira, "https://jira.example.com", config.PersonalAccessToken{Token: "pat"})

	client := NewHTTPClient(pc)
	assert.Equal(t, DefaultTimeout, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	if transport.TLSClientConfig != nil {
		assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
	}

	pc.SSLVerify = false
	transport, ok = NewHTTPClient(pc).Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestAPIErrorTruncatesBody(t *testing.T) {
	body := make([]byte, 2000)
	for i := range body {
		body[i] = 'x'
	}
	err := &APIError{Product: config.ProductConfluence, StatusCode: 500, Body: string(body)}
	assert.Contains(t, err.Error(), "Confluence API request failed with status 500")
	assert.Less(t, len(err.Error()), 600)
}
