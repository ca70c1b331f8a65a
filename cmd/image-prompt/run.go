package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/document"
	"github.com/nachoal/image-prompt-go/llm"
	"github.com/nachoal/image-prompt-go/llm/openai"
	"github.com/nachoal/image-prompt-go/plugin"
	"github.com/nachoal/image-prompt-go/tui"
	"github.com/nachoal/image-prompt-go/vault"
	"github.com/nachoal/image-prompt-go/workflow"
)

var (
	vaultDir  string
	fromPos   string
	toPos     string
	lineRange string
	matchText string
	dryRun    bool
	quiet     bool
	timeout   time.Duration

	runCmd = &cobra.Command{
		Use:   "run [note.md]",
		Short: "Run the image prompt command on a note",
		Long: `Run opens the note, selects the requested text and runs the
image prompt command on it. The answer is inserted below the selection and the
note is saved in place.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runPrompt,
	}
)

func init() {
	runCmd.Flags().StringVar(&vaultDir, "vault", "", "vault root (default: nearest parent containing .obsidian, else the note's folder)")
	runCmd.Flags().StringVar(&fromPos, "from", "", "selection start as line:ch, zero-based")
	runCmd.Flags().StringVar(&toPos, "to", "", "selection end as line:ch, zero-based")
	runCmd.Flags().StringVar(&lineRange, "lines", "", "select whole lines a-b, zero-based and inclusive")
	runCmd.Flags().StringVar(&matchText, "match", "", "select the first occurrence of this text")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the updated note instead of saving it")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not show the loading indicator")
	runCmd.Flags().DurationVar(&timeout, "timeout", 0, "request timeout, 0 waits indefinitely")

	runCmd.MarkFlagsMutuallyExclusive("lines", "match", "from")
	runCmd.MarkFlagsMutuallyExclusive("lines", "match", "to")
}

// cliHost exposes one note on disk as the active view
type cliHost struct {
	workspace document.Workspace
	resolver  vault.Resolver
	indicator workflow.Indicator
	commands  *plugin.Registry
	logger    *slog.Logger
}

func (h *cliHost) Workspace() document.Workspace { return h.workspace }
func (h *cliHost) Vault() vault.Resolver         { return h.resolver }
func (h *cliHost) Indicator() workflow.Indicator { return h.indicator }
func (h *cliHost) Commands() *plugin.Registry    { return h.commands }
func (h *cliHost) Logger() *slog.Logger          { return h.logger }

func runPrompt(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	view, err := document.OpenFile(args[0])
	if err != nil {
		return err
	}
	if err := selectRange(view.Buffer()); err != nil {
		return err
	}

	root := vaultDir
	if root == "" {
		root = vault.FindRoot(view.Path(), ".obsidian")
	}
	resolver, err := vault.NewDir(root)
	if err != nil {
		return err
	}
	logger.Debug("vault_opened", "root", resolver.Root(), "note", view.Path())

	settings, err := openSettings()
	if err != nil {
		return err
	}

	host := &cliHost{
		workspace: document.SingleWorkspace{View: view},
		resolver:  resolver,
		indicator: newIndicator(),
		commands:  plugin.NewRegistry(),
		logger:    logger,
	}

	p := plugin.New(settings, newClientFactory(timeout))
	if err := p.OnLoad(host); err != nil {
		return err
	}
	defer p.OnUnload()

	if err := host.commands.Execute(cmd.Context(), plugin.CommandID); err != nil {
		return err
	}

	if dryRun {
		fmt.Fprint(cmd.OutOrStdout(), view.Editor().GetValue())
		return nil
	}
	if err := view.Save(); err != nil {
		return err
	}

	if out := p.LastOutcome(); out != nil {
		logger.Debug("note_saved", "path", view.Path(), "line", out.Inserted.Line)
	}
	return nil
}

func newIndicator() workflow.Indicator {
	if quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return workflow.NoopIndicator{}
	}
	return tui.NewSpinner(os.Stderr)
}

func newClientFactory(timeout time.Duration) workflow.ClientFactory {
	return func(s config.Settings) (llm.Client, error) {
		return openai.NewClient(
			llm.WithAPIKey(s.APIKey),
			llm.WithModel(s.Model),
			llm.WithBaseURL(s.BaseURL),
			llm.WithTimeout(timeout),
		)
	}
}

// selectRange applies the selection flags to the buffer. Without any flag
// the selection stays empty.
func selectRange(b *document.Buffer) error {
	switch {
	case lineRange != "":
		first, last, err := parseLineRange(lineRange)
		if err != nil {
			return err
		}
		return b.SelectLines(first, last)

	case matchText != "":
		return b.SelectMatch(matchText)

	case fromPos != "" || toPos != "":
		start := fromPos
		if start == "" {
			start = toPos
		}
		from, err := document.ParsePosition(start)
		if err != nil {
			return err
		}
		to := from
		if toPos != "" {
			if to, err = document.ParsePosition(toPos); err != nil {
				return err
			}
		}
		return b.SetSelection(from, to)
	}
	return nil
}

// parseLineRange parses "a-b" or a single line "a"
func parseLineRange(s string) (int, int, error) {
	firstStr, lastStr, found := strings.Cut(strings.TrimSpace(s), "-")
	first, err := strconv.Atoi(strings.TrimSpace(firstStr))
	if err != nil || first < 0 {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	if !found {
		return first, first, nil
	}
	last, err := strconv.Atoi(strings.TrimSpace(lastStr))
	if err != nil || last < 0 {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	return first, last, nil
}
