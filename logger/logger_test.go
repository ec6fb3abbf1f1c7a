// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
)

func TestLevels(t *testing.T) {
	assert.Equal(t, []mlog.Level{mlog.LvlWarn, mlog.LvlError}, Levels(config.LogLevelWarning))
	assert.Equal(t, []mlog.Level{mlog.LvlInfo, mlog.LvlWarn, mlog.LvlError}, Levels(config.LogLevelInfo))
	assert.Equal(t, []mlog.Level{mlog.LvlDebug, mlog.LvlInfo, mlog.LvlWarn, mlog.LvlError}, Levels(config.LogLevelDebug))
}

func TestKeyValuePairsToFields(t *testing.T) {
	fields := keyValuePairsToFields([]any{"product", "jira", 42, "dropped", "dangling"})
	require.Len(t, fields, 1)
	assert.Equal(t, "product", fields[0].Key)
}

func TestTargets(t *testing.T) {
	cfg := targets(config.LogLevelInfo, "")
	require.Contains(t, cfg, "console")
	assert.NotContains(t, cfg, "file")
	assert.JSONEq(t, `{"out": "stderr"}`, string(cfg["console"].Options))

	cfg = targets(config.LogLevelInfo, `/tmp/odd "name".log`)
	require.Contains(t, cfg, "file")

	var options map[string]any
	require.NoError(t, json.Unmarshal(cfg["file"].Options, &options))
	assert.Equal(t, `/tmp/odd "name".log`, options["filename"])
}

func TestCreateLoggerWithFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gateway.log")

	log, err := CreateLoggerWithOptions(config.LogLevelWarning, logFile)
	require.NoError(t, err)

	log.Info("suppressed at warning level")
	log.Warn("product disabled", "product", "jira")
	require.NoError(t, log.Flush())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "product disabled")
	assert.NotContains(t, string(data), "suppressed at warning level")
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Warn("ignored", "key", "value")
	assert.NoError(t, log.Flush())
}
