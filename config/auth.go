// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

// AuthStrategy is the credential scheme used to talk to a product. The
// concrete types are NoAuth, BasicAuth and PersonalAccessToken.
type AuthStrategy interface {
	// AuthType is a short, non-secret name for logging.
	AuthType() string
	isAuthStrategy()
}

// NoAuth means no usable credentials. It completes the variant set for
// callers that switch over AuthStrategy; the resolver reports missing
// credentials as ErrIncompleteCredentials instead of producing it.
type NoAuth struct{}

// BasicAuth authenticates with a username (email on Cloud) and an API token.
type BasicAuth struct {
	Username string
	Token    string
}

// PersonalAccessToken authenticates with a single bearer token.
type PersonalAccessToken struct {
	Token string
}

func (NoAuth) AuthType() string              { return "none" }
func (BasicAuth) AuthType() string           { return "basic" }
func (PersonalAccessToken) AuthType() string { return "token" }

func (NoAuth) isAuthStrategy()              {}
func (BasicAuth) isAuthStrategy()           {}
func (PersonalAccessToken) isAuthStrategy() {}

// Redact masks a secret for log output, keeping at most the last four
// characters of long values.
func Redact(secret string) string {
	runes := []rune(secret)
	switch {
	case len(runes) == 0:
		return ""
	case len(runes) <= 8:
		return "****"
	default:
		return "****" + string(runes[len(runes)-4:])
	}
}
