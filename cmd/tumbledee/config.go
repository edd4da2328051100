package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tumbledee/pkg/auth"
	"tumbledee/pkg/checkpoint"
	"tumbledee/pkg/config"
	"tumbledee/pkg/logger"
	"tumbledee/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tumbledee configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TUMBLEDEE_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration as YAML.

The file is created in the current directory as 'tumbledee.yaml'
unless a different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and the credentials file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "tumbledee.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file %s already exists", configPath)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'tumbledee auth init' to store your API key")
	fmt.Println("2. Run 'tumbledee config validate' to check the setup")
	fmt.Println("3. Start downloading with 'tumbledee <blog>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if creds, err := auth.LoadCredentials(cfg.Tumblr.CredentialsFile); err == nil {
		fmt.Println()
		ui.PrintInfo("api_key", auth.MaskKey(creds.APIKey))
	}

	if cfg.Checkpoint.Enabled {
		return printPendingCheckpoints(cmd.OutOrStdout(), cfg.Checkpoint.Path)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	if _, err := auth.LoadCredentials(cfg.Tumblr.CredentialsFile); err != nil {
		ui.PrintWarning("Credentials", err.Error())
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  API: %s\n", cfg.Tumblr.APIBaseURL)
	fmt.Printf("  Credentials: %s\n", cfg.Tumblr.CredentialsFile)
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Concurrent downloads: %d\n", cfg.Download.ConcurrentDownloads)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Checkpoints: %t (%s)\n", cfg.Checkpoint.Enabled, cfg.Checkpoint.Path)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)

	if cfg.Checkpoint.Enabled {
		if err := printPendingCheckpoints(cmd.OutOrStdout(), cfg.Checkpoint.Path); err != nil {
			ui.PrintWarning("Checkpoints", err.Error())
		}
	}
	return nil
}

// printPendingCheckpoints lists the unfinished runs recorded in the
// checkpoint database at path. A database that does not exist yet is left
// uncreated.
func printPendingCheckpoints(w io.Writer, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	cps, err := checkpoint.Open(path, logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer cps.Close()

	pending, err := cps.List()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "\nPending checkpoints:")
	if len(pending) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, cp := range pending {
		fmt.Fprintf(w, "  %s: next offset %d, %d posts remaining (updated %s)\n",
			cp.Key(), cp.NextOffset, cp.Remaining, cp.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
