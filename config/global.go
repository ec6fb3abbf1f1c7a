// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultSSEPort is used when the sse transport is selected without a port.
const DefaultSSEPort uint16 = 8000

// TransportKind selects how the gateway talks to its client.
type TransportKind string

const (
	TransportStdio TransportKind = "stdio"
	TransportSSE   TransportKind = "sse"
)

// Transport is the resolved transport selection. Port is only meaningful for
// TransportSSE and is zero otherwise.
type Transport struct {
	Kind TransportKind
	Port uint16
}

// LogLevel is the minimum severity the gateway logs.
type LogLevel int

const (
	LogLevelWarning LogLevel = iota
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	}
	return "warning"
}

// GlobalConfig holds the settings that apply across products.
type GlobalConfig struct {
	Transport Transport
	ReadOnly  bool
	LogLevel  LogLevel
}

// ResolveGlobal resolves the cross-cutting settings. Every invalid value is
// reported, joined into a single error.
func ResolveGlobal(raw RawSettings) (GlobalConfig, error) {
	var errs []error

	transport, err := resolveTransport(raw)
	if err != nil {
		errs = append(errs, err)
	}

	readOnly, _, err := lookupBool(raw, "", KeyReadOnlyMode)
	if err != nil {
		errs = append(errs, err)
	}

	verbose, _, err := lookupBool(raw, "", KeyVerbose)
	if err != nil {
		errs = append(errs, err)
	}

	veryVerbose, _, err := lookupBool(raw, "", KeyVeryVerbose)
	if err != nil {
		errs = append(errs, err)
	}

	level := LogLevelWarning
	switch {
	case veryVerbose:
		level = LogLevelDebug
	case verbose:
		level = LogLevelInfo
	}

	if len(errs) > 0 {
		return GlobalConfig{}, errors.Join(errs...)
	}

	return GlobalConfig{
		Transport: transport,
		ReadOnly:  readOnly,
		LogLevel:  level,
	}, nil
}

func resolveTransport(raw RawSettings) (Transport, error) {
	kind := TransportStdio
	if v, ok := raw.Get(KeyTransport); ok {
		switch TransportKind(strings.ToLower(strings.TrimSpace(v))) {
		case TransportStdio:
			kind = TransportStdio
		case TransportSSE:
			kind = TransportSSE
		default:
			return Transport{}, invalidEnum("", KeyTransport, v, "one of stdio, sse")
		}
	}

	if kind != TransportSSE {
		// A port given alongside stdio is inert.
		return Transport{Kind: kind}, nil
	}

	port := DefaultSSEPort
	if v, ok := raw.Get(KeyPort); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n < 1 || n > 65535 {
			return Transport{}, invalidEnum("", KeyPort, v, "a port number between 1 and 65535")
		}
		port = uint16(n)
	}

	return Transport{Kind: kind, Port: port}, nil
}
