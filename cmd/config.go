package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/khrees2412/prospector/internal/config"
	"github.com/spf13/cobra"
)

var validConfigKeys = []string{
	"llm.api_key", "llm.base_url", "llm.model", "llm.timeout",
	"database.path",
	"server.addr",
	"ranking.on_create", "ranking.concurrency", "ranking.requests_per_second",
	"scraper.render", "scraper.timeout",
	"log_level",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		cfg := a.Config

		cmd.Println(titleStyle.Render("Configuration"))
		printField(cmd, "Config File:", cfg.Path())
		printField(cmd, "Database:", cfg.Database.Path)
		printField(cmd, "LLM Endpoint:", cfg.LLM.BaseURL)
		printField(cmd, "Model:", cfg.LLM.Model)
		printField(cmd, "LLM Timeout:", cfg.LLM.Timeout.String())
		if cfg.LLM.APIKey != "" {
			printField(cmd, "API Key:", "✓ Configured ("+maskKey(cfg.LLM.APIKey)+")")
		} else {
			printField(cmd, "API Key:", "✗ Not configured")
		}
		printField(cmd, "Server Address:", cfg.Server.Addr)
		printField(cmd, "Rank On Create:", fmt.Sprint(cfg.Ranking.OnCreate))
		printField(cmd, "Rank Concurrency:", fmt.Sprint(cfg.Ranking.Concurrency))
		printField(cmd, "Rank Rate Limit:", fmt.Sprintf("%g req/s", cfg.Ranking.RequestsPerSecond))
		printField(cmd, "Render Pages:", fmt.Sprint(cfg.Scraper.Render))
		printField(cmd, "Log Level:", cfg.LogLevel)
		return nil
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a configuration value",
	Args:  cobra.ExactArgs(2),
	Example: `  prospector config set llm.api_key sk-or-...
  prospector config set llm.model openai/gpt-4o-mini
  prospector config set ranking.on_create false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp(cmd)
		if err != nil {
			return err
		}
		key, value := strings.ToLower(args[0]), args[1]
		if !slices.Contains(validConfigKeys, key) {
			return fmt.Errorf("invalid key %q. Must be one of: %s", key, strings.Join(validConfigKeys, ", "))
		}

		if err := config.Set(a.Config.Path(), key, value); err != nil {
			return fmt.Errorf("update config: %w", err)
		}
		cmd.Printf("✓ Configuration updated: %s\n", key)
		return nil
	},
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)
}
