package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tumbledee/pkg/auth"
	"tumbledee/pkg/config"
	"tumbledee/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Tumblr API key",
	Long: `Manage the credentials file holding the Tumblr API key.

The file is JSON ({"api_key": "..."}) unless its name ends in .toml.
It is written with permissions 0600. Never share it.`,
}

var authInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Store a Tumblr API key",
	Example: `  # Write ~/.credentials.json
  tumbledee auth init

  # Write a TOML file instead
  tumbledee auth init --credentials ~/.config/tumbledee/credentials.toml`,
	Args: cobra.NoArgs,
	RunE: runAuthInit,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API key, masked",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authInitCmd)
	authCmd.AddCommand(authShowCmd)
}

// credentialsPath resolves the credentials file from flags, environment and config
func credentialsPath(cmd *cobra.Command) string {
	cfg, err := config.Load(configFile, commandLineFlags(cmd))
	if err != nil || cfg.Tumblr.CredentialsFile == "" {
		return auth.DefaultCredentialsPath()
	}
	return auth.ExpandPath(cfg.Tumblr.CredentialsFile)
}

func runAuthInit(cmd *cobra.Command, args []string) error {
	path := credentialsPath(cmd)
	reader := bufio.NewReader(os.Stdin)

	auth.ShowAPIKeyGuide(os.Stdout, path)

	if existing, err := auth.LoadCredentials(path); err == nil {
		fmt.Printf("\nA key is already stored (%s). Replace it? (y/N): ", auth.MaskKey(existing.APIKey))
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("\nOAuth consumer key: ")
	key, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	if err := auth.SaveCredentials(path, &auth.Credentials{APIKey: key}); err != nil {
		return err
	}

	ui.PrintSuccess("API key saved to " + path)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	path := credentialsPath(cmd)
	creds, err := auth.LoadCredentials(path)
	if err != nil {
		return err
	}

	ui.PrintInfo("Credentials file", path)
	ui.PrintInfo("api_key", auth.MaskKey(creds.APIKey))
	return nil
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
