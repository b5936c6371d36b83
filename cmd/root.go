/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/query-retrieval/config"
	"github.com/tieubaoca/query-retrieval/utils"
	"go.uber.org/zap"
)

const defaultConfigFile = "config/config.yaml"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "query-retrieval",
	Short: "Answer questions against a document knowledge base",
	Long: `query-retrieval builds a searchable knowledge base from a directory of
documents and answers batches of natural-language questions over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+defaultConfigFile+" when present)")
}

// resolveConfigPath returns the --config value, or the default file if it exists.
func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile
	}
	return ""
}

// setup loads and validates configuration and builds the logger every
// command shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(resolveConfigPath())
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("startup configuration error: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("startup configuration error: %w", err)
	}
	return cfg, logger, nil
}
