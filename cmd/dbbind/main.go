// Package main contains the cli implementation of the tool. It uses cobra
// package for cli tool implementation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dbbind/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		envFile  string
		cfg      = &config.Config{}
	)

	rootCmd := &cobra.Command{
		Use:           "dbbind",
		Short:         "Schema binding compiler for ClickHouse, Postgres and MySQL tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			*cfg = *config.LoadFromEnv()
			if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = logLevel
			}
			config.SetDefaultLogger(cmd.ErrOrStderr(), cfg.SlogLevel())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error (env LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before running")

	rootCmd.AddCommand(
		generateCmd(cfg),
		inspectCmd(cfg),
		locateCmd(cfg),
		classifyCmd(),
		rewriteCmd(),
	)
	return rootCmd
}
