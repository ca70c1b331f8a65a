package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nachoal/image-prompt-go/tui/styles"
)

type hideMsg struct{}

type tooltipMsg string

type spinnerModel struct {
	spinner spinner.Model
	styles  *styles.Styles
	tooltip string
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case hideMsg:
		m.done = true
		return m, tea.Quit
	case tooltipMsg:
		m.tooltip = string(msg)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n%s\n",
		m.spinner.View(),
		m.styles.Tooltip.Render(m.tooltip),
		m.styles.Status.Render("Waiting for response..."),
	)
}

// Spinner draws a loading indicator on a terminal while a request runs
type Spinner struct {
	out    io.Writer
	styles *styles.Styles

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewSpinner creates an indicator that renders to out
func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{
		out:    out,
		styles: styles.DefaultStyles(),
	}
}

// Show starts the spinner. Calling it again while visible replaces the text.
func (s *Spinner) Show(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program != nil {
		s.program.Send(tooltipMsg(message))
		return
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.styles.Spinner

	p := tea.NewProgram(spinnerModel{spinner: sp, styles: s.styles, tooltip: message},
		tea.WithOutput(s.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()

	s.program = p
	s.done = done
}

// Hide removes the spinner and waits for it to stop drawing. It is a no-op
// when nothing is shown.
func (s *Spinner) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == nil {
		return
	}
	s.program.Send(hideMsg{})
	<-s.done

	s.program = nil
	s.done = nil
}
