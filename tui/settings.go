package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nachoal/image-prompt-go/config"
	"github.com/nachoal/image-prompt-go/tui/styles"
)

// SettingsStore persists each edit made in the form
type SettingsStore interface {
	Settings() config.Settings
	SetAPIKey(value string) error
	SetMaxTokens(value string) error
	SetModel(value string) error
}

// SettingsReloadedMsg reports that the settings file changed on disk
type SettingsReloadedMsg struct {
	Settings config.Settings
}

type settingsField struct {
	name        string
	description string
	input       textinput.Model
	save        func(string) error
}

// SettingsForm edits the plugin settings. Every change is saved right away.
type SettingsForm struct {
	store  SettingsStore
	styles *styles.Styles
	fields []settingsField
	focus  int
	status string
	err    error
	width  int
}

// NewSettingsForm creates a form seeded with the store's current settings
func NewSettingsForm(store SettingsStore) *SettingsForm {
	s := store.Settings()

	apiKey := textinput.New()
	apiKey.Placeholder = "Enter your key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.SetValue(s.APIKey)

	maxTokens := textinput.New()
	maxTokens.SetValue(strconv.Itoa(s.MaxTokens))

	model := textinput.New()
	model.SetValue(s.Model)

	f := &SettingsForm{
		store:  store,
		styles: styles.DefaultStyles(),
		fields: []settingsField{
			{name: "API Key", description: "Enter your OpenAI API Key", input: apiKey, save: store.SetAPIKey},
			{name: "Max Tokens", description: "Maximum number of tokens to generate.", input: maxTokens, save: store.SetMaxTokens},
			{name: "OpenAI Model", description: "The model to use for completions.", input: model, save: store.SetModel},
		},
		width: 60,
	}
	f.fields[0].input.Focus()
	return f
}

func (f *SettingsForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *SettingsForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		f.width = msg.Width
		return f, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return f, tea.Quit
		case "tab", "down", "enter":
			return f, f.setFocus(f.focus + 1)
		case "shift+tab", "up":
			return f, f.setFocus(f.focus - 1)
		}

	case SettingsReloadedMsg:
		f.reload(msg.Settings)
		return f, nil
	}

	field := &f.fields[f.focus]
	before := field.input.Value()

	var cmd tea.Cmd
	field.input, cmd = field.input.Update(msg)

	if value := field.input.Value(); value != before {
		if err := field.save(value); err != nil {
			f.err = err
			f.status = ""
		} else {
			f.err = nil
			f.status = fmt.Sprintf("%s saved", field.name)
		}
	}
	return f, cmd
}

func (f *SettingsForm) View() string {
	var b strings.Builder

	b.WriteString(f.styles.Title.Render("Settings for image-prompt"))
	b.WriteString("\n")

	for i, field := range f.fields {
		label := f.styles.Label.Render(field.name)
		if i == f.focus {
			label = f.styles.Focused.Render("> ") + label
		} else {
			label = "  " + label
		}
		b.WriteString(label + "\n")
		b.WriteString("  " + f.styles.Description.Render(field.description) + "\n")
		b.WriteString("  " + field.input.View() + "\n\n")
	}

	switch {
	case f.err != nil:
		b.WriteString(f.styles.Failed.Render("Error: " + f.err.Error()))
	case f.status != "":
		b.WriteString(f.styles.Saved.Render(f.status))
	}

	b.WriteString(f.styles.Help.Render("tab/shift+tab to move • esc to quit"))

	return f.styles.Frame.Width(f.width - 4).Render(b.String())
}

// Err returns the last save error, if any
func (f *SettingsForm) Err() error {
	return f.err
}

func (f *SettingsForm) setFocus(i int) tea.Cmd {
	n := len(f.fields)
	i = ((i % n) + n) % n

	f.fields[f.focus].input.Blur()
	f.focus = i
	return f.fields[f.focus].input.Focus()
}

// reload refreshes the fields that are not being edited
func (f *SettingsForm) reload(s config.Settings) {
	values := []string{s.APIKey, strconv.Itoa(s.MaxTokens), s.Model}
	for i := range f.fields {
		if i == f.focus {
			continue
		}
		f.fields[i].input.SetValue(values[i])
	}
}
