// Package plugin wires the image-prompt workflow into a host: it loads the
// settings, registers the command and tears everything down on unload.
package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/document"
	"github.com/nachoal/image-prompt-go/vault"
	"github.com/nachoal/image-prompt-go/workflow"
)

const (
	CommandID   = "use-image-prompt-selected-text"
	CommandName = "Use image-prompt workflow with selected text as prompt"
)

// Host is what the plugin needs from the application embedding it
type Host interface {
	Workspace() document.Workspace
	Vault() vault.Resolver
	Indicator() workflow.Indicator
	Commands() *Registry
	Logger() *slog.Logger
}

// Plugin holds the settings and the runner for one host
type Plugin struct {
	settings  *config.Manager
	newClient workflow.ClientFactory

	mu     sync.Mutex
	host   Host
	runner *workflow.Runner
	last   *workflow.Outcome
	logger *slog.Logger
	loaded bool
}

// New creates an unloaded plugin
func New(settings *config.Manager, newClient workflow.ClientFactory) *Plugin {
	return &Plugin{
		settings:  settings,
		newClient: newClient,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// OnLoad reads the settings and registers the command with the host
func (p *Plugin) OnLoad(host Host) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return fmt.Errorf("plugin already loaded")
	}
	if err := p.settings.Load(); err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if l := host.Logger(); l != nil {
		p.logger = l
	}
	p.host = host
	p.runner = workflow.NewRunner(host.Workspace(), host.Vault(), p.newClient,
		workflow.WithIndicator(host.Indicator()),
		workflow.WithLogger(p.logger),
	)

	if err := host.Commands().Register(Command{
		ID:       CommandID,
		Name:     CommandName,
		Callback: p.convertSelection,
	}); err != nil {
		return err
	}

	p.loaded = true
	p.logger.Debug("plugin_loaded", "settings", p.settings.Path())
	return nil
}

// OnUnload removes the command from the host
func (p *Plugin) OnUnload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return
	}
	p.host.Commands().Unregister(CommandID)
	p.loaded = false
	p.runner = nil
}

// Settings returns the plugin's settings manager
func (p *Plugin) Settings() *config.Manager {
	return p.settings
}

// LastOutcome returns the result of the most recent successful run
func (p *Plugin) LastOutcome() *workflow.Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// convertSelection is the command callback. Failures come back as errors,
// panics included.
func (p *Plugin) convertSelection(ctx context.Context) (err error) {
	p.mu.Lock()
	runner := p.runner
	p.mu.Unlock()
	if runner == nil {
		return fmt.Errorf("plugin is not loaded")
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("command_panic", "command", CommandID, "panic", r)
			err = fmt.Errorf("command %s panicked: %v", CommandID, r)
		}
	}()

	out, err := runner.Run(ctx, p.settings.Settings())
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.last = out
	p.mu.Unlock()
	return nil
}
