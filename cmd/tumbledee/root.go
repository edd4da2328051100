package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"tumbledee/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	credentialsFile string
	logLevel        string
	logFile         string
)

// rootCmd downloads from the blog named by its single argument
var rootCmd = &cobra.Command{
	Use:   "tumbledee <account>",
	Short: "Download the images and text posts of a Tumblr blog",
	Long: `tumbledee walks the posts (or likes) of a Tumblr blog through the v2 API.

Photo posts are saved as their original-size images. Text posts are saved as
{id}.html and every image their body references is downloaded as well.
Files are written to a directory named after the blog unless --outdir is given.

The API key is read from ~/.credentials.json ({"api_key": "..."}).
Run 'tumbledee auth init' to create it.`,
	Example: `  # Download the latest post of staff.tumblr.com
  tumbledee staff

  # Download 120 posts starting at the 40th into ./out
  tumbledee staff -n 120 -s 40 -o ./out

  # Download liked posts with info logging
  tumbledee staff --likes -v

  # Continue a run that was interrupted
  tumbledee staff -n 500 --resume`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runScrape,
}

// Execute runs the root command and exits non-zero on a fatal error or interrupt
func Execute() {
	if err := rootCmd.ExecuteContext(parentContext()); err != nil {
		ui.PrintError("tumbledee", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./tumbledee.yaml or ~/.config/tumbledee/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&credentialsFile, "credentials", "", "credentials file (default is ~/.credentials.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")

	rootCmd.SetVersionTemplate(`tumbledee {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// parentContext is cancelled on SIGINT, SIGQUIT or SIGTERM
func parentContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		defer cancel()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
		defer signal.Stop(ch)

		<-ch
	}()

	return ctx
}

// commandLineFlags collects the global flags that were set explicitly
func commandLineFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if credentialsFile != "" {
		flags["credentials"] = credentialsFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("rate-limit") {
		flags["rate-limit"] = rateLimit
	}
	if cmd.Flags().Changed("no-checkpoint") {
		flags["no-checkpoint"] = noCheckpoint
	}
	return flags
}
