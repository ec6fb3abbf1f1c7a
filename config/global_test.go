// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveGlobalDefaults(t *testing.T) {
	global, err := ResolveGlobal(rawFromEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, Transport{Kind: TransportStdio}, global.Transport)
	assert.False(t, global.ReadOnly)
	assert.Equal(t, LogLevelWarning, global.LogLevel)
}

func TestResolveGlobalTransport(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    Transport
		wantErr bool
	}{
		{
			name: "sse with port",
			env:  map[string]string{"TRANSPORT": "sse", "PORT": "9000"},
			want: Transport{Kind: TransportSSE, Port: 9000},
		},
		{
			name: "sse is case insensitive",
			env:  map[string]string{"TRANSPORT": "SSE"},
			want: Transport{Kind: TransportSSE, Port: DefaultSSEPort},
		},
		{
			name: "stdio ignores port",
			env:  map[string]string{"TRANSPORT": "stdio", "PORT": "not-a-port"},
			want: Transport{Kind: TransportStdio},
		},
		{
			name: "default transport ignores out of range port",
			env:  map[string]string{"PORT": "99999"},
			want: Transport{Kind: TransportStdio},
		},
		{
			name:    "unknown transport",
			env:     map[string]string{"TRANSPORT": "websocket"},
			wantErr: true,
		},
		{
			name:    "port out of range",
			env:     map[string]string{"TRANSPORT": "sse", "PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "port zero",
			env:     map[string]string{"TRANSPORT": "sse", "PORT": "0"},
			wantErr: true,
		},
		{
			name:    "port not numeric",
			env:     map[string]string{"TRANSPORT": "sse", "PORT": "eighty"},
			wantErr: true,
		},
		{
			name: "port upper bound",
			env:  map[string]string{"TRANSPORT": "sse", "PORT": "65535"},
			want: Transport{Kind: TransportSSE, Port: 65535},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global, err := ResolveGlobal(rawFromEnv(tt.env))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidEnum)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, global.Transport)
		})
	}
}

func TestResolveGlobalLogLevel(t *testing.T) {
	tests := []struct {
		name        string
		verbose     string
		veryVerbose string
		want        LogLevel
	}{
		{name: "neither", want: LogLevelWarning},
		{name: "verbose", verbose: "true", want: LogLevelInfo},
		{name: "very verbose", veryVerbose: "yes", want: LogLevelDebug},
		{name: "both", verbose: "1", veryVerbose: "1", want: LogLevelDebug},
		{name: "verbose false", verbose: "false", want: LogLevelWarning},
		{name: "very verbose false keeps verbose", verbose: "true", veryVerbose: "no", want: LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := map[string]string{
				"verbose":      tt.verbose,
				"very_verbose": tt.veryVerbose,
			}
			global, err := ResolveGlobal(Aggregate(params, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, global.LogLevel)
		})
	}
}

func TestResolveGlobalReadOnly(t *testing.T) {
	global, err := ResolveGlobal(rawFromEnv(map[string]string{"READ_ONLY_MODE": " Yes "}))
	require.NoError(t, err)
	assert.True(t, global.ReadOnly)

	_, err = ResolveGlobal(rawFromEnv(map[string]string{"READ_ONLY_MODE": "enabled"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestResolveGlobalReportsEveryError(t *testing.T) {
	_, err := ResolveGlobal(rawFromEnv(map[string]string{
		"TRANSPORT":        "carrier-pigeon",
		"READ_ONLY_MODE":   "perhaps",
		"MCP_VERBOSE":      "loud",
		"MCP_VERY_VERBOSE": "louder",
	}))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "transport")
	assert.Contains(t, msg, "read_only_mode")
	assert.Contains(t, msg, "verbose")
	assert.Contains(t, msg, "very_verbose")
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "1", "yes", "Yes"} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"false", "False", "0", "no", "NO"} {
		b, err := ParseBool(v)
		require.NoError(t, err, v)
		assert.False(t, b, v)
	}
	for _, v := range []string{"", "on", "off", "y", "2"} {
		_, err := ParseBool(v)
		assert.Error(t, err, v)
	}
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "warning", LogLevelWarning.String())
	assert.Equal(t, "info", LogLevelInfo.String())
	assert.Equal(t, "debug", LogLevelDebug.String())
}
