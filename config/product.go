// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"errors"
	"net/url"
	"strings"
)

// Product is an Atlassian product the gateway can front.
type Product string

const (
	ProductJira       Product = "jira"
	ProductConfluence Product = "confluence"
)

// Products lists every product in resolution order.
var Products = []Product{ProductJira, ProductConfluence}

// DisplayName returns the product name for operator-facing messages.
func (p Product) DisplayName() string {
	switch p {
	case ProductJira:
		return "Jira"
	case ProductConfluence:
		return "Confluence"
	}
	return string(p)
}

// productKeys are the settings read by the per-product resolver.
type productKeys struct {
	url           Key
	username      Key
	apiToken      Key
	personalToken Key
	sslVerify     Key
	filter        Key
}

func (p Product) keys() productKeys {
	switch p {
	case ProductJira:
		return productKeys{
			url:           KeyJiraURL,
			username:      KeyJiraUsername,
			apiToken:      KeyJiraAPIToken,
			personalToken: KeyJiraPersonalToken,
			sslVerify:     KeyJiraSSLVerify,
			filter:        KeyJiraProjectsFilter,
		}
	case ProductConfluence:
		return productKeys{
			url:           KeyConfluenceURL,
			username:      KeyConfluenceUsername,
			apiToken:      KeyConfluenceAPIToken,
			personalToken: KeyConfluencePersonalToken,
			sslVerify:     KeyConfluenceSSLVerify,
			filter:        KeyConfluenceSpacesFilter,
		}
	}
	return productKeys{}
}

// URLKey returns the key whose presence marks the product as configured.
func (p Product) URLKey() Key {
	return p.keys().url
}

// DeploymentProfile is the hosting topology of a product instance.
type DeploymentProfile int

const (
	ServerDataCenter DeploymentProfile = iota
	Cloud
)

func (d DeploymentProfile) String() string {
	if d == Cloud {
		return "cloud"
	}
	return "server"
}

// ProductConfig is the resolved, read-only configuration for one product.
type ProductConfig struct {
	Product    Product
	BaseURL    *url.URL
	Deployment DeploymentProfile
	Auth       AuthStrategy
	SSLVerify  bool
	Filter     EntityFilter
}

// IsCloud reports whether the product is an Atlassian Cloud tenant.
func (c *ProductConfig) IsCloud() bool {
	return c.Deployment == Cloud
}

// LogFields returns key/value pairs describing the config with secrets
// redacted.
func (c *ProductConfig) LogFields() []any {
	fields := []any{
		"product", string(c.Product),
		"url", c.BaseURL.String(),
		"deployment", c.Deployment.String(),
		"auth_type", c.Auth.AuthType(),
	}

	switch auth := c.Auth.(type) {
	case BasicAuth:
		fields = append(fields, "username", auth.Username, "api_token", Redact(auth.Token))
	case PersonalAccessToken:
		fields = append(fields, "personal_token", Redact(auth.Token))
	}

	return append(fields, "ssl_verify", c.SSLVerify, "filter", c.Filter.String())
}

// ResolveProduct resolves the configuration for p from raw. It returns
// (nil, nil) when the product URL is absent. Every product key is checked
// independently and all failures are returned joined; no partial
// configuration is produced.
func ResolveProduct(p Product, raw RawSettings) (*ProductConfig, error) {
	keys := p.keys()

	rawURL, ok := raw.Get(keys.url)
	if !ok {
		return nil, nil
	}

	var errs []error

	baseURL, err := validateBaseURL(rawURL)
	if err != nil {
		errs = append(errs, &Error{Kind: ErrMalformedURL, Product: p, Key: keys.url, Detail: err.Error()})
	}

	auth, err := resolveAuth(p, keys, raw)
	if err != nil {
		errs = append(errs, err)
	}

	override, present, err := lookupBool(raw, p, keys.sslVerify)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	deployment := ServerDataCenter
	if IsCloudURL(baseURL) {
		deployment = Cloud
	}

	sslVerify := true
	if present && deployment == ServerDataCenter {
		sslVerify = override
	}

	filter := MatchAllFilter()
	if v, ok := raw.Get(keys.filter); ok {
		filter = ParseEntityFilter(v)
	}

	return &ProductConfig{
		Product:    p,
		BaseURL:    baseURL,
		Deployment: deployment,
		Auth:       auth,
		SSLVerify:  sslVerify,
		Filter:     filter,
	}, nil
}

func resolveAuth(p Product, keys productKeys, raw RawSettings) (AuthStrategy, error) {
	if token, ok := raw.Get(keys.personalToken); ok {
		return PersonalAccessToken{Token: token}, nil
	}

	username, hasUsername := raw.Get(keys.username)
	token, hasToken := raw.Get(keys.apiToken)
	if hasUsername && hasToken {
		return BasicAuth{Username: username, Token: token}, nil
	}

	missing := keys.personalToken
	var detail string
	switch {
	case hasUsername:
		missing = keys.apiToken
		detail = string(keys.username) + " is set but " + string(keys.apiToken) + " is missing"
	case hasToken:
		missing = keys.username
		detail = string(keys.apiToken) + " is set but " + string(keys.username) + " is missing"
	default:
		detail = "set " + string(keys.personalToken) + " or both " +
			strings.Join([]string{string(keys.username), string(keys.apiToken)}, " and ")
	}

	return nil, &Error{Kind: ErrIncompleteCredentials, Product: p, Key: missing, Detail: detail}
}
