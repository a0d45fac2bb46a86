// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ala-agent CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/ala-agent/internal/secrets"
	"github.com/pdiddy/ala-agent/internal/telemetry"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets secrets.Secrets

	// logger is configured from telemetry.* before any command runs.
	logger = slog.Default()

	// shutdownTracing flushes spans when the command finishes.
	shutdownTracing telemetry.ShutdownFunc = func(context.Context) error { return nil }
)

// rootCmd is the base command for the ala-agent CLI.
var rootCmd = &cobra.Command{
	Use:   "ala-agent",
	Short: "Answer biodiversity questions from the Atlas of Living Australia",
	Long: `ala-agent turns a natural-language question about Australian species into
calls against the Atlas of Living Australia web services.

A question is parsed into search parameters by a language model, species
names are resolved to taxon identifiers, a plan of tool calls is chosen,
and the tools are run in order. Each stage is also a subcommand so it can
be inspected on its own: extract, resolve, plan, and tool.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		logger = telemetry.NewLogger(cfg.Telemetry, os.Stderr)
		slog.SetDefault(logger)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			logger.Debug("loaded secrets", "keys", names)
		}

		shutdown, err := telemetry.SetupTracing(cfg.Telemetry, version, os.Stderr)
		if err != nil {
			return err
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return shutdownTracing(context.Background())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./ala-agent.yaml or ~/.config/ala-agent/ala-agent.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("trace", false, "write OpenTelemetry spans to stderr")
	pf.String("base-url", "", "ALA API gateway")
	pf.String("model", "", "language model used for extraction and planning")
	pf.String("planner", "", "planner strategy: llm or rules")
	pf.String("cache", "", "name cache backend: memory, badger, or redis")

	for key, flag := range map[string]string{
		"telemetry.log_level": "log-level",
		"telemetry.trace":     "trace",
		"http.base_url":       "base-url",
		"ai.model":            "model",
		"planning.strategy":   "planner",
		"cache.backend":       "cache",
	} {
		viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ala-agent")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ala-agent"))
		}
	}

	viper.SetEnvPrefix("ALA_AGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
