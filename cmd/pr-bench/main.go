// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pr-bench CLI, the pipeline for
// building and scoring documentation-QA benchmarks from pull requests.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pr-bench/internal/secrets"
	"github.com/pdiddy/pr-bench/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return fallback
}

// rootCmd is the base command for the pr-bench CLI.
var rootCmd = &cobra.Command{
	Use:   "pr-bench",
	Short: "Build and score documentation-QA benchmarks from pull requests",
	Long: `pr-bench builds benchmarks for documentation question-answering systems
out of real repository history. It scrapes merged pull requests that pass
substance filters, and scores system answers against ground truth with an
AI judge.

Each pipeline stage is a subcommand: scrape collects pull requests,
evaluate scores answered test cases, and results indexes and queries the
scored runs.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./pr-bench.yaml or ~/.config/pr-bench/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pr-bench")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pr-bench"))
		}
	}

	viper.SetEnvPrefix("PR_BENCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadPipelineConfig reads the discovered config file into the pipeline
// configuration. Stages that need no config tolerate a missing file; the
// scrape stage requires one since it lists the target repositories.
func loadPipelineConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig

	path := viper.ConfigFileUsed()
	if path == "" {
		return cfg, fmt.Errorf("no config file found: create pr-bench.yaml or pass --config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
