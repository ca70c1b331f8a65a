package tui

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/nachoal/image-prompt-go/tui/styles"
	"github.com/nachoal/image-prompt-go/workflow"
)

var _ workflow.Indicator = (*Spinner)(nil)

func TestSpinnerModel_View(t *testing.T) {
	m := spinnerModel{spinner: spinner.New(), styles: styles.DefaultStyles(), tooltip: "Asking gpt-4o about cat.png"}

	view := stripANSI(m.View())
	if !strings.Contains(view, "Asking gpt-4o about cat.png") || !strings.Contains(view, "Waiting for response") {
		t.Fatalf("unexpected view %q", view)
	}

	updated, _ := m.Update(tooltipMsg("retitled"))
	if view := stripANSI(updated.View()); !strings.Contains(view, "retitled") {
		t.Fatalf("expected tooltip update, got %q", view)
	}

	updated, cmd := updated.Update(hideMsg{})
	if updated.View() != "" {
		t.Fatalf("expected empty view after hide")
	}
	if cmd == nil {
		t.Fatalf("expected quit command after hide")
	}
}

func TestSpinner_HideWithoutShow(t *testing.T) {
	s := NewSpinner(io.Discard)
	s.Hide()
}

func TestSpinner_ShowHide(t *testing.T) {
	s := NewSpinner(io.Discard)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Show("working")
		s.Show("still working")
		s.Hide()
		s.Hide()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("spinner did not stop")
	}
}
