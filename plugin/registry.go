package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Command is an entry in the command palette
type Command struct {
	ID       string
	Name     string
	Callback func(ctx context.Context) error
}

// Registry manages command registration and lookup
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command. IDs must be unique.
func (r *Registry) Register(cmd Command) error {
	if cmd.ID == "" {
		return fmt.Errorf("command id is required")
	}
	if cmd.Callback == nil {
		return fmt.Errorf("command '%s' has no callback", cmd.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[cmd.ID]; exists {
		return fmt.Errorf("command '%s' is already registered", cmd.ID)
	}

	r.commands[cmd.ID] = cmd
	return nil
}

// Unregister removes a command
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.commands, id)
}

// Get retrieves a command by id
func (r *Registry) Get(id string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, exists := r.commands[id]
	if !exists {
		return Command{}, fmt.Errorf("command '%s' not found", id)
	}

	return cmd, nil
}

// List returns all registered commands sorted by id
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].ID < cmds[j].ID })
	return cmds
}

// Execute runs a command by id
func (r *Registry) Execute(ctx context.Context, id string) error {
	cmd, err := r.Get(id)
	if err != nil {
		return err
	}
	return cmd.Callback(ctx)
}
