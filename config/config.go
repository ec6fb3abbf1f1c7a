// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

// Package config resolves the gateway's deployment, credential and transport
// settings from CLI parameters and environment variables.
package config

import (
	"errors"
	"strings"
)

// Warner receives non-fatal resolution problems. logger.Logger satisfies it.
type Warner interface {
	Warn(msg string, keyValuePairs ...any)
}

// GatewayConfig is the resolved gateway configuration. It is built once at
// startup and shared read-only afterwards. At least one of Jira and
// Confluence is non-nil.
type GatewayConfig struct {
	Global     GlobalConfig
	Jira       *ProductConfig
	Confluence *ProductConfig

	// Skipped holds the product-scoped errors of products that were
	// configured but could not be resolved.
	Skipped map[Product]error
}

// Product returns the resolved configuration for p, or nil when p is not
// available.
func (c *GatewayConfig) Product(p Product) *ProductConfig {
	switch p {
	case ProductJira:
		return c.Jira
	case ProductConfluence:
		return c.Confluence
	}
	return nil
}

// Available returns the products that resolved successfully, in resolution
// order.
func (c *GatewayConfig) Available() []Product {
	var products []Product
	for _, p := range Products {
		if c.Product(p) != nil {
			products = append(products, p)
		}
	}
	return products
}

// ReadOnly reports whether state-mutating operations are disabled.
func (c *GatewayConfig) ReadOnly() bool {
	return c.Global.ReadOnly
}

// Build resolves the full gateway configuration from raw. Global settings and
// each product are resolved independently and every problem is collected.
// Product-scoped errors are tolerated as long as another product resolves;
// they are passed to warner and kept in Skipped. Invalid values, and the
// absence of any usable product, are fatal and returned joined.
func Build(raw RawSettings, warner Warner) (*GatewayConfig, error) {
	var fatal []error

	global, err := ResolveGlobal(raw)
	if err != nil {
		fatal = append(fatal, err)
	}

	cfg := &GatewayConfig{
		Global:  global,
		Skipped: make(map[Product]error),
	}

	var productErrs []error
	for _, p := range Products {
		pc, err := ResolveProduct(p, raw)
		switch {
		case err != nil && IsProductScoped(err):
			cfg.Skipped[p] = err
			productErrs = append(productErrs, err)
		case err != nil:
			fatal = append(fatal, err)
		case pc != nil:
			cfg.setProduct(p, pc)
		}
	}

	if cfg.Jira == nil && cfg.Confluence == nil {
		fatal = append(fatal, &Error{Kind: ErrNoProductConfigured, Detail: noProductDetail(raw)})
		fatal = append(fatal, productErrs...)
	}

	if len(fatal) > 0 {
		return nil, errors.Join(fatal...)
	}

	if warner != nil {
		cfg.warn(raw, warner)
	}

	return cfg, nil
}

func (c *GatewayConfig) setProduct(p Product, pc *ProductConfig) {
	switch p {
	case ProductJira:
		c.Jira = pc
	case ProductConfluence:
		c.Confluence = pc
	}
}

func (c *GatewayConfig) warn(raw RawSettings, warner Warner) {
	for _, p := range Products {
		if err, ok := c.Skipped[p]; ok {
			warner.Warn("product disabled due to configuration error",
				"product", string(p),
				"error", err.Error(),
				"running_with", runningWith(c.Available()),
			)
		}
	}

	for _, p := range c.Available() {
		pc := c.Product(p)
		if !pc.IsCloud() {
			continue
		}
		if v, ok := raw.Get(p.keys().sslVerify); ok {
			if verify, err := ParseBool(v); err == nil && !verify {
				warner.Warn("ssl verification cannot be disabled for cloud deployments; ignoring override",
					"product", string(p),
					"key", string(p.keys().sslVerify),
				)
			}
		}
	}
}

func runningWith(products []Product) string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.DisplayName())
	}
	return strings.Join(names, ", ") + " only"
}

func noProductDetail(raw RawSettings) string {
	var missing []string
	for _, p := range Products {
		if !raw.Has(p.URLKey()) {
			missing = append(missing, string(p.URLKey()))
		}
	}
	if len(missing) == 0 {
		return "every configured product failed to resolve"
	}
	return "set " + strings.Join(missing, " or ") + " together with credentials"
}
