// Copyright (c) 2023-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mattermost/mattermost-mcp-atlassian/config"
	"github.com/mattermost/mattermost-mcp-atlassian/logger"
	"github.com/mattermost/mattermost-mcp-atlassian/mcpserver"
	"github.com/mattermost/mattermost-mcp-atlassian/metrics"
)

const (
	version        = "0.1.0"
	defaultEnvFile = ".env"
)

var (
	envFile string
	logFile string
)

// sslVerifyKeys are the per-product boolean keys exposed as --X / --no-X
// flag pairs.
var sslVerifyKeys = []config.Key{config.KeyJiraSSLVerify, config.KeyConfluenceSSLVerify}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcp-atlassian",
		Short: "Atlassian Model Context Protocol (MCP) Server",
		Long: `A Model Context Protocol (MCP) server that provides tools for Jira and Confluence.

Each product is configured independently from flags and environment variables.
A product whose configuration is incomplete is disabled and the server keeps
running with the remaining products.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServer,
	}

	registerFlags(rootCmd.Flags())
	return rootCmd
}

func registerFlags(flags *pflag.FlagSet) {
	flags.StringVar(&envFile, "env-file", "", "Path to a .env file (defaults to ./.env when present)")
	flags.StringVar(&logFile, "log-file", "", "Path to log file (logs to file in addition to stderr)")

	flags.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
	flags.Bool(config.KeyReadOnlyMode.FlagName(), false, "Disable all write operations")

	for _, k := range sslVerifyKeys {
		flags.Bool(k.FlagName(), true, fmt.Sprintf("Verify TLS certificates (%s)", k.EnvName()))
		flags.Bool("no-"+k.FlagName(), false, fmt.Sprintf("Disable TLS verification (%s)", k.EnvName()))
	}

	for _, k := range config.Keys() {
		if isBooleanKey(k) {
			continue
		}
		flags.String(k.FlagName(), "", fmt.Sprintf("Sets %s", k.EnvName()))
	}
}

func isBooleanKey(k config.Key) bool {
	switch k {
	case config.KeyReadOnlyMode, config.KeyVerbose, config.KeyVeryVerbose,
		config.KeyJiraSSLVerify, config.KeyConfluenceSSLVerify:
		return true
	}
	return false
}

// collectParams turns the flags the user actually set into invocation
// params. Unset flags stay absent so environment values still apply.
func collectParams(flags *pflag.FlagSet) (map[string]string, error) {
	params := make(map[string]string)

	for _, k := range config.Keys() {
		if isBooleanKey(k) || !flags.Changed(k.FlagName()) {
			continue
		}
		value, err := flags.GetString(k.FlagName())
		if err != nil {
			return nil, err
		}
		params[string(k)] = value
	}

	if flags.Changed("verbose") {
		count, err := flags.GetCount("verbose")
		if err != nil {
			return nil, err
		}
		if count >= 1 {
			params[string(config.KeyVerbose)] = "true"
		}
		if count >= 2 {
			params[string(config.KeyVeryVerbose)] = "true"
		}
	}

	if flags.Changed(config.KeyReadOnlyMode.FlagName()) {
		readOnly, err := flags.GetBool(config.KeyReadOnlyMode.FlagName())
		if err != nil {
			return nil, err
		}
		params[string(config.KeyReadOnlyMode)] = strconv.FormatBool(readOnly)
	}

	for _, k := range sslVerifyKeys {
		negated := "no-" + k.FlagName()
		switch {
		case flags.Changed(negated):
			disabled, err := flags.GetBool(negated)
			if err != nil {
				return nil, err
			}
			params[string(k)] = strconv.FormatBool(!disabled)
		case flags.Changed(k.FlagName()):
			enabled, err := flags.GetBool(k.FlagName())
			if err != nil {
				return nil, err
			}
			params[string(k)] = strconv.FormatBool(enabled)
		}
	}

	return params, nil
}

// loadEnvFile reads the .env file. A missing default file is not an error;
// a missing explicit file is.
func loadEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return values, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	params, err := collectParams(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}

	dotenv, err := loadEnvFile(envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	// The process environment wins over the .env file.
	raw := config.Aggregate(params, config.Layered(os.LookupEnv, config.MapLookup(dotenv)))

	level := config.LogLevelWarning
	if global, globalErr := config.ResolveGlobal(raw); globalErr == nil {
		level = global.LogLevel
	}

	log, err := logger.CreateLoggerWithOptions(level, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Flush() }()

	cfg, err := config.Build(raw, log)
	if err != nil {
		log.Error("invalid configuration", "error", err.Error())
		return err
	}

	for _, p := range cfg.Available() {
		log.Info("product configured", cfg.Product(p).LogFields()...)
	}

	m := metrics.NewMetrics(metrics.InstanceInfo{
		Version:   version,
		Transport: string(cfg.Global.Transport.Kind),
	})

	server, err := mcpserver.NewServer(cfg, log, m, version)
	if err != nil {
		log.Error("failed to create mcp server", "error", err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		log.Error("server stopped", "error", err.Error())
		return err
	}
	return nil
}
