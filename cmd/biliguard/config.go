package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"biliguard/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage biliguard configuration files.

Configuration is loaded with the following precedence:
  - Environment variables (highest priority)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.biliguard.yaml' in the current directory unless
a different path is given with the --config flag.`,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources. Sensitive cookie
values are masked.`,
	RunE: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# biliguard configuration file

account:
  # The Bilibili account to monitor (its numeric mid)
  mid: 941228

scrape:
  # How many of the newest videos and dynamics to scrape each pass
  video_count: 20
  dynamic_count: 20
  # Comment listing pages per item and ordering
  max_page: 10
  # Content created after this moment is reported separately
  # recent_cutoff: 2024-01-01T00:00:00Z
  # Base wait window of the sub-reply rate-limit gate
  backoff_base_delay: 30s

database:
  # go-sql-driver/mysql DSN; leave empty for an in-memory store
  # dsn: "user:pass@tcp(localhost:3306)/biliguard?charset=utf8mb4&parseTime=True&loc=UTC"
  dsn: ""

dashboard:
  enabled: true
  addr: ":8320"
  status_file: "biliguard.status.json"

# Prefer 'biliguard auth login' or BILIGUARD_SESSDATA / BILIGUARD_BILI_JCT
# environment variables over writing cookies here.
credentials:
  sessdata: ""
  bili_jct: ""
  buvid3: ""

logging:
  level: info
  # file: biliguard.log
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".biliguard.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Configuration written to %s\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	masked := *cfg
	masked.Credentials.SessData = maskValue(cfg.Credentials.SessData)
	masked.Credentials.BiliJct = maskValue(cfg.Credentials.BiliJct)

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(configFile); err != nil {
		return err
	}
	fmt.Println("Configuration is valid")
	return nil
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
