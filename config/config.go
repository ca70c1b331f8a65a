package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultMaxTokens = 500
	DefaultModel     = "gpt-4-vision-preview"

	// PluginID keys the settings directory under the user's home.
	PluginID = "image-prompt"
)

// Settings represents the persisted plugin configuration.
// The JSON keys match the plugin data.json layout.
type Settings struct {
	APIKey       string `json:"apiKey" mapstructure:"apiKey"`
	MaxTokens    int    `json:"maxTokens" mapstructure:"maxTokens"`
	Model        string `json:"model" mapstructure:"model"`
	SystemPrompt string `json:"systemPrompt,omitempty" mapstructure:"systemPrompt"`
	BaseURL      string `json:"baseURL,omitempty" mapstructure:"baseURL"`
}

// DefaultSettings returns the settings used when nothing is persisted yet
func DefaultSettings() Settings {
	return Settings{
		MaxTokens: DefaultMaxTokens,
		Model:     DefaultModel,
	}
}

// Manager handles settings persistence
type Manager struct {
	mu         sync.RWMutex
	v          *viper.Viper
	configPath string
	settings   Settings
	callbacks  []func(Settings)
	watching   bool
}

// DefaultPath returns ~/.image-prompt/settings.json
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, "."+PluginID, "settings.json"), nil
}

// NewManager creates a settings manager for the given file. An empty path
// selects DefaultPath. Existing settings are loaded immediately.
func NewManager(configPath string) (*Manager, error) {
	if configPath == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		v:          newViper(configPath),
		configPath: configPath,
		settings:   DefaultSettings(),
	}

	if err := m.Load(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return m, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("apiKey", defaults.APIKey)
	v.SetDefault("maxTokens", defaults.MaxTokens)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("systemPrompt", "")
	v.SetDefault("baseURL", "")
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	return v
}

// Load reads the settings file. A missing file is not an error; every
// field absent from the file falls back to its default.
func (m *Manager) Load() error {
	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", m.configPath, err)
		}
	}

	s, err := m.decode()
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
	return nil
}

func (m *Manager) decode() (Settings, error) {
	var s Settings
	if err := m.v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings: %w", err)
	}
	return normalize(s), nil
}

func normalize(s Settings) Settings {
	if s.MaxTokens <= 0 {
		s.MaxTokens = DefaultMaxTokens
	}
	s.Model = strings.TrimSpace(s.Model)
	if s.Model == "" {
		s.Model = DefaultModel
	}
	return s
}

// Save writes the current settings to disk
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.settings, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	return nil
}

// Settings returns a copy of the current settings
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// Path returns the settings file location
func (m *Manager) Path() string {
	return m.configPath
}

func (m *Manager) update(fn func(*Settings)) error {
	m.mu.Lock()
	fn(&m.settings)
	m.mu.Unlock()
	return m.Save()
}

// SetAPIKey stores the key verbatim and persists it
func (m *Manager) SetAPIKey(value string) error {
	return m.update(func(s *Settings) { s.APIKey = value })
}

// SetMaxTokens parses the form value as an integer, falling back to
// DefaultMaxTokens when it is not a positive number, and persists it.
func (m *Manager) SetMaxTokens(value string) error {
	n := ParseMaxTokens(value)
	return m.update(func(s *Settings) { s.MaxTokens = n })
}

// SetModel trims the form value and persists it
func (m *Manager) SetModel(value string) error {
	model := strings.TrimSpace(value)
	return m.update(func(s *Settings) { s.Model = model })
}

// SetSystemPrompt sets the optional persona sent as a system message
func (m *Manager) SetSystemPrompt(value string) error {
	return m.update(func(s *Settings) { s.SystemPrompt = value })
}

// SetBaseURL points the client at an OpenAI-compatible endpoint
func (m *Manager) SetBaseURL(value string) error {
	url := strings.TrimSpace(value)
	return m.update(func(s *Settings) { s.BaseURL = url })
}

var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// ParseMaxTokens reads the leading integer of value. Anything that does not
// start with a positive integer yields DefaultMaxTokens.
func ParseMaxTokens(value string) int {
	match := leadingInt.FindStringSubmatch(value)
	if match == nil {
		return DefaultMaxTokens
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return DefaultMaxTokens
	}
	return n
}

// Watch reloads the settings whenever the file changes on disk and invokes
// fn with the new values. The file is created first if it does not exist.
func (m *Manager) Watch(fn func(Settings)) error {
	if _, err := os.Stat(m.configPath); errors.Is(err, fs.ErrNotExist) {
		if err := m.Save(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.callbacks = append(m.callbacks, fn)
	start := !m.watching
	m.watching = true
	m.mu.Unlock()

	if !start {
		return nil
	}

	m.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := m.decode()
		if err != nil {
			return
		}

		m.mu.Lock()
		m.settings = s
		callbacks := append([]func(Settings){}, m.callbacks...)
		m.mu.Unlock()

		for _, cb := range callbacks {
			cb(s)
		}
	})
	m.v.WatchConfig()

	return nil
}
