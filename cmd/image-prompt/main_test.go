package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/nachoal/image-prompt-go/workflow"
)

func resetFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		cfgFile, verbose = "", false
		vaultDir, fromPos, toPos, lineRange, matchText = "", "", "", "", ""
		dryRun, quiet, timeout = false, true, 0
	}
	reset()
	t.Cleanup(reset)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestCmd(out *bytes.Buffer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(out)
	return cmd
}

// newVault lays out a vault with the image in a subfolder and returns the
// note path and a settings file pointed at baseURL.
func newVault(t *testing.T, note, baseURL string) (string, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".obsidian"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(root, "assets", "cat.png"), "\x89PNG")
	notePath := filepath.Join(root, "notes", "cat.md")
	writeFile(t, notePath, note)

	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	writeFile(t, settingsPath, `{"apiKey":"test-key","maxTokens":64,"baseURL":"`+baseURL+`"}`)
	return notePath, settingsPath
}

func TestRunPrompt_InsertsAnswerAndSaves(t *testing.T) {
	resetFlags(t)

	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4-vision-preview","choices":[{"index":0,"message":{"role":"assistant","content":"A cat."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	notePath, settingsPath := newVault(t, "![[cat.png]]\nWhat is this?\nend", server.URL)
	cfgFile = settingsPath
	lineRange = "1"

	if err := runPrompt(newTestCmd(&bytes.Buffer{}), []string{notePath}); err != nil {
		t.Fatalf("runPrompt: %v", err)
	}

	saved, err := os.ReadFile(notePath)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if string(saved) != "![[cat.png]]\nWhat is this?\nA cat.\nend" {
		t.Fatalf("unexpected note %q", saved)
	}
	if body["max_tokens"] != float64(64) {
		t.Fatalf("expected max_tokens 64, got %v", body["max_tokens"])
	}
}

func TestRunPrompt_DryRunDoesNotSave(t *testing.T) {
	resetFlags(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"Tabby."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	note := "![[cat.png]]\nBreed?"
	notePath, settingsPath := newVault(t, note, server.URL)
	cfgFile = settingsPath
	matchText = "Breed?"
	dryRun = true

	var out bytes.Buffer
	if err := runPrompt(newTestCmd(&out), []string{notePath}); err != nil {
		t.Fatalf("runPrompt: %v", err)
	}
	if out.String() != note+"\nTabby." {
		t.Fatalf("unexpected dry run output %q", out.String())
	}
	saved, _ := os.ReadFile(notePath)
	if string(saved) != note {
		t.Fatalf("dry run modified the note: %q", saved)
	}
}

func TestRunPrompt_NoSelectionIsPrecondition(t *testing.T) {
	resetFlags(t)

	notePath, settingsPath := newVault(t, "![[cat.png]]\nWhat?", "http://127.0.0.1:0")
	cfgFile = settingsPath

	err := runPrompt(newTestCmd(&bytes.Buffer{}), []string{notePath})
	if !errors.Is(err, workflow.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
	if code := exitCode(err); code != 0 {
		t.Fatalf("expected exit code 0 for a precondition abort, got %d", code)
	}
}

func TestRunPrompt_ServerErrorFails(t *testing.T) {
	resetFlags(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	note := "![[cat.png]]\nWhat?"
	notePath, settingsPath := newVault(t, note, server.URL)
	cfgFile = settingsPath
	fromPos, toPos = "1:0", "1:5"

	err := runPrompt(newTestCmd(&bytes.Buffer{}), []string{notePath})
	if err == nil {
		t.Fatalf("expected error")
	}
	if code := exitCode(err); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	saved, _ := os.ReadFile(notePath)
	if string(saved) != note {
		t.Fatalf("note modified after a failed request: %q", saved)
	}
}

func TestParseLineRange(t *testing.T) {
	cases := map[string][2]int{
		"3":      {3, 3},
		"1-4":    {1, 4},
		" 2 - 5": {2, 5},
	}
	for in, want := range cases {
		first, last, err := parseLineRange(in)
		if err != nil {
			t.Fatalf("parseLineRange(%q): %v", in, err)
		}
		if first != want[0] || last != want[1] {
			t.Fatalf("parseLineRange(%q) = %d-%d, want %d-%d", in, first, last, want[0], want[1])
		}
	}

	for _, bad := range []string{"", "a-b", "-1", "2-"} {
		if _, _, err := parseLineRange(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(not set)" {
		t.Fatalf("unexpected mask for empty key: %q", got)
	}
	if got := maskKey("short"); got != "*****" {
		t.Fatalf("unexpected mask for short key: %q", got)
	}
	got := maskKey("sk-abcdefghijkl1234")
	if !strings.HasPrefix(got, "sk-") || !strings.HasSuffix(got, "1234") || strings.Contains(got, "abcdef") {
		t.Fatalf("unexpected mask: %q", got)
	}
}

func TestSetSetting(t *testing.T) {
	resetFlags(t)
	cfgFile = filepath.Join(t.TempDir(), "settings.json")

	if err := setSetting(nil, []string{"max-tokens", "abc"}); err != nil {
		t.Fatalf("setSetting: %v", err)
	}
	if err := setSetting(nil, []string{"model", "  gpt-4o  "}); err != nil {
		t.Fatalf("setSetting: %v", err)
	}
	if err := setSetting(nil, []string{"colour", "blue"}); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	var out bytes.Buffer
	if err := showSettings(newTestCmd(&out), nil); err != nil {
		t.Fatalf("showSettings: %v", err)
	}
	for _, want := range []string{"max-tokens", "500", "gpt-4o"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestListCommands(t *testing.T) {
	resetFlags(t)
	cfgFile = filepath.Join(t.TempDir(), "settings.json")

	var out bytes.Buffer
	if err := listCommands(newTestCmd(&out), nil); err != nil {
		t.Fatalf("listCommands: %v", err)
	}
	if !strings.Contains(out.String(), "use-image-prompt-selected-text") {
		t.Fatalf("expected command id in output:\n%s", out.String())
	}
}
