package plugin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/document"
	"github.com/nachoal/image-prompt-go/llm"
	"github.com/nachoal/image-prompt-go/vault"
	"github.com/nachoal/image-prompt-go/workflow"
)

type testHost struct {
	ws       document.Workspace
	resolver vault.Resolver
	commands *Registry
}

func (h *testHost) Workspace() document.Workspace { return h.ws }
func (h *testHost) Vault() vault.Resolver         { return h.resolver }
func (h *testHost) Indicator() workflow.Indicator { return workflow.NoopIndicator{} }
func (h *testHost) Commands() *Registry           { return h.commands }
func (h *testHost) Logger() *slog.Logger          { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type stubClient struct {
	reply string
	err   error
	seen  *llm.ChatRequest
}

func (c *stubClient) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	c.seen = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.ChatResponse{Choices: []llm.Choice{{Content: llm.StringPtr(c.reply)}}}, nil
}

func (c *stubClient) Close() error { return nil }

func setup(t *testing.T, note string, factory workflow.ClientFactory) (*Plugin, *testHost, *document.FileView) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pic.png"), []byte{1, 2, 3}, 0644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	notePath := filepath.Join(root, "note.md")
	if err := os.WriteFile(notePath, []byte(note), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}

	view, err := document.OpenFile(notePath)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	resolver, err := vault.NewDir(root)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	settings, err := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	host := &testHost{
		ws:       document.SingleWorkspace{View: view},
		resolver: resolver,
		commands: NewRegistry(),
	}
	return New(settings, factory), host, view
}

func TestOnLoad_RegistersCommand(t *testing.T) {
	client := &stubClient{reply: "A small square."}
	p, host, view := setup(t, "![[pic.png]]\nWhat shape?", func(config.Settings) (llm.Client, error) {
		return client, nil
	})

	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}

	cmds := host.commands.List()
	if len(cmds) != 1 || cmds[0].ID != CommandID || cmds[0].Name != CommandName {
		t.Fatalf("unexpected commands %+v", cmds)
	}

	if err := view.Buffer().SelectLines(1, 1); err != nil {
		t.Fatalf("SelectLines: %v", err)
	}
	if err := host.commands.Execute(context.Background(), CommandID); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := view.Editor().GetValue(); got != "![[pic.png]]\nWhat shape?\nA small square." {
		t.Fatalf("unexpected document %q", got)
	}
	if out := p.LastOutcome(); out == nil || out.Image != "pic.png" {
		t.Fatalf("unexpected last outcome %+v", out)
	}
	if client.seen.Model != config.DefaultModel || client.seen.MaxTokens != config.DefaultMaxTokens {
		t.Fatalf("expected default settings in request, got %+v", client.seen)
	}
}

func TestOnLoad_UsesCurrentSettings(t *testing.T) {
	client := &stubClient{reply: "ok"}
	p, host, view := setup(t, "![[pic.png]]\nq", func(config.Settings) (llm.Client, error) {
		return client, nil
	})
	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}

	if err := p.Settings().SetModel(" gpt-4o "); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	_ = view.Buffer().SelectLines(1, 1)
	if err := host.commands.Execute(context.Background(), CommandID); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.seen.Model != "gpt-4o" {
		t.Fatalf("expected edited model to apply, got %q", client.seen.Model)
	}
}

func TestOnLoad_Twice(t *testing.T) {
	p, host, _ := setup(t, "x", func(config.Settings) (llm.Client, error) { return &stubClient{}, nil })
	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}
	if err := p.OnLoad(host); err == nil {
		t.Fatalf("expected error on second load")
	}
}

func TestOnUnload_RemovesCommand(t *testing.T) {
	p, host, _ := setup(t, "x", func(config.Settings) (llm.Client, error) { return &stubClient{}, nil })
	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}
	p.OnUnload()

	if _, err := host.commands.Get(CommandID); err == nil {
		t.Fatalf("expected command to be unregistered")
	}
	if err := p.convertSelection(context.Background()); err == nil {
		t.Fatalf("expected error when running an unloaded plugin")
	}
}

func TestCommand_TransportErrorIsReturnedNotPanicked(t *testing.T) {
	note := "![[pic.png]]\nprompt"
	p, host, view := setup(t, note, func(config.Settings) (llm.Client, error) {
		return &stubClient{err: errors.New("dial tcp: connection refused")}, nil
	})
	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}
	_ = view.Buffer().SelectLines(1, 1)

	err := host.commands.Execute(context.Background(), CommandID)
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
	if view.Editor().GetValue() != note {
		t.Fatalf("document changed after transport error")
	}
}

func TestCommand_RecoversPanics(t *testing.T) {
	p, host, view := setup(t, "![[pic.png]]\nprompt", func(config.Settings) (llm.Client, error) {
		panic("factory exploded")
	})
	if err := p.OnLoad(host); err != nil {
		t.Fatalf("OnLoad: %v", err)
	}
	_ = view.Buffer().SelectLines(1, 1)

	err := host.commands.Execute(context.Background(), CommandID)
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("expected recovered panic error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context) error { return nil }

	if err := r.Register(Command{ID: "b", Callback: noop}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(Command{ID: "a", Callback: noop}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(Command{ID: "a", Callback: noop}); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := r.Register(Command{ID: "c"}); err == nil {
		t.Fatalf("expected error for missing callback")
	}

	list := r.List()
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected list %+v", list)
	}
	if err := r.Execute(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for unknown command")
	}
}
