package main

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/document"
	"github.com/nachoal/image-prompt-go/plugin"
	"github.com/nachoal/image-prompt-go/tui"
	"github.com/nachoal/image-prompt-go/workflow"
)

var (
	settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Edit the settings in an interactive form",
		RunE:  runSettings,
	}

	settingsShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE:  showSettings,
	}

	settingsSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting (api-key, max-tokens, model, system-prompt, base-url)",
		Args:  cobra.ExactArgs(2),
		RunE:  setSetting,
	}

	commandsCmd = &cobra.Command{
		Use:   "commands",
		Short: "List the commands the plugin registers",
		RunE:  listCommands,
	}
)

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	form := tui.NewSettingsForm(settings)
	p := tea.NewProgram(form)

	// Pick up edits made to the file while the form is open
	if err := settings.Watch(func(s config.Settings) {
		p.Send(tui.SettingsReloadedMsg{Settings: s})
	}); err != nil {
		return err
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running settings form: %w", err)
	}
	return form.Err()
}

func showSettings(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}
	s := settings.Settings()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Settings file: %s\n", settings.Path())
	fmt.Fprintf(out, "  %-14s %s\n", "api-key", maskKey(s.APIKey))
	fmt.Fprintf(out, "  %-14s %d\n", "max-tokens", s.MaxTokens)
	fmt.Fprintf(out, "  %-14s %s\n", "model", s.Model)
	fmt.Fprintf(out, "  %-14s %s\n", "system-prompt", orNone(s.SystemPrompt))
	fmt.Fprintf(out, "  %-14s %s\n", "base-url", orNone(s.BaseURL))
	return nil
}

func setSetting(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	setters := map[string]func(string) error{
		"api-key":       settings.SetAPIKey,
		"max-tokens":    settings.SetMaxTokens,
		"model":         settings.SetModel,
		"system-prompt": settings.SetSystemPrompt,
		"base-url":      settings.SetBaseURL,
	}

	set, ok := setters[args[0]]
	if !ok {
		keys := make([]string, 0, len(setters))
		for k := range setters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown setting %q (expected one of %s)", args[0], strings.Join(keys, ", "))
	}
	return set(args[1])
}

func listCommands(cmd *cobra.Command, args []string) error {
	settings, err := openSettings()
	if err != nil {
		return err
	}

	host := &cliHost{
		workspace: document.SingleWorkspace{},
		indicator: workflow.NoopIndicator{},
		commands:  plugin.NewRegistry(),
		logger:    newLogger(),
	}
	p := plugin.New(settings, newClientFactory(0))
	if err := p.OnLoad(host); err != nil {
		return err
	}
	defer p.OnUnload()

	fmt.Fprintln(cmd.OutOrStdout(), "Available commands:")
	for _, c := range host.commands.List() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-32s %s\n", c.ID, c.Name)
	}
	return nil
}

func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return key[:3] + strings.Repeat("*", len(key)-7) + key[len(key)-4:]
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
