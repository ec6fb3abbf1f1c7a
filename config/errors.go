// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration error kinds. Every error returned by this package matches
// exactly one of these with errors.Is.
var (
	ErrMalformedURL          = errors.New("malformed url")
	ErrIncompleteCredentials = errors.New("incomplete credentials")
	ErrInvalidEnum           = errors.New("invalid value")
	ErrNoProductConfigured   = errors.New("no product configured")
)

// Error is a single configuration problem attributed to a product (if any)
// and the offending key.
type Error struct {
	Kind    error
	Product Product
	Key     Key
	Detail  string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Product != "" {
		b.WriteString(string(e.Product))
		b.WriteString(": ")
	}
	if e.Key != "" {
		b.WriteString(string(e.Key))
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// IsProductScoped reports whether err only disqualifies a single product and
// can be recovered by running without it. An invalid value anywhere in a
// joined error makes the whole error fatal.
func IsProductScoped(err error) bool {
	if err == nil || errors.Is(err, ErrInvalidEnum) {
		return false
	}
	return errors.Is(err, ErrMalformedURL) || errors.Is(err, ErrIncompleteCredentials)
}

func invalidEnum(p Product, k Key, value string, allowed string) *Error {
	return &Error{
		Kind:    ErrInvalidEnum,
		Product: p,
		Key:     k,
		Detail:  fmt.Sprintf("%q (expected %s)", value, allowed),
	}
}
