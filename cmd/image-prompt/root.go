package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nachoal/image-prompt-go/config"
)

var (
	// Flags
	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "image-prompt",
		Short: "Ask a vision model about the image above your selection",
		Long: `image-prompt sends the selected text of a markdown note, together with
the nearest ![[image]] embed above it, to an OpenAI-compatible chat model and
writes the answer below the selection.`,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default: ~/.image-prompt/settings.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(commandsCmd)
	rootCmd.AddCommand(versionCmd)
	settingsCmd.AddCommand(settingsShowCmd)
}

// newLogger writes developer logs to stderr. Only errors are shown unless
// --verbose or IMAGE_PROMPT_DEBUG enables debug output.
func newLogger() *slog.Logger {
	level := slog.LevelError
	if verbose || debugEnv() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func debugEnv() bool {
	switch strings.ToLower(os.Getenv("IMAGE_PROMPT_DEBUG")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func openSettings() (*config.Manager, error) {
	return config.NewManager(cfgFile)
}
