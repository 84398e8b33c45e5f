package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, overridden at build time
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "biliguard",
	Short: "Bilibili comment guardian: detect silently deleted comments",
	Long: `biliguard monitors one Bilibili account's videos and dynamics, collects
their comment trees, and detects comments that were silently deleted
upstream by diffing each scrape pass against a persisted record store.

Features:
  - Dual-ordering comment collection (chronological + popularity)
  - Sub-reply thread expansion with adaptive rate-limit backoff
  - Deletion detection with a safe reconciliation watermark
  - Web dashboard with a newest-first feed and operator flagging
  - Secure cookie storage via system keychain or encrypted file`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .biliguard.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`biliguard {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
