package bot

import (
	"context"
	"strings"
)

// Event is one inbound command, tagged with chat and user identity.
type Event struct {
	ChatID   string
	UserID   string
	Username string
	Args     []string
}

type HandlerFunc func(ctx context.Context, ev Event) error

type command struct {
	name        string
	description string
	handler     HandlerFunc
}

// Registry is the static command table built at startup. No dynamic
// handler discovery: every command is registered explicitly.
type Registry struct {
	commands map[string]command
	order    []string
	fallback HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]command)}
}

func (r *Registry) Register(name, description string, handler HandlerFunc) {
	r.commands[name] = command{name: name, description: description, handler: handler}
	r.order = append(r.order, name)
}

// SetFallback installs the handler for unrecognized commands.
func (r *Registry) SetFallback(handler HandlerFunc) {
	r.fallback = handler
}

func (r *Registry) Dispatch(ctx context.Context, name string, ev Event) error {
	if cmd, ok := r.commands[name]; ok {
		return cmd.handler(ctx, ev)
	}
	if r.fallback != nil {
		return r.fallback(ctx, ev)
	}
	return nil
}

// Help lists all registered commands in registration order.
func (r *Registry) Help() string {
	var b strings.Builder
	b.WriteString("The following commands are available:\n")
	for _, name := range r.order {
		cmd := r.commands[name]
		b.WriteString("/")
		b.WriteString(cmd.name)
		b.WriteString(": ")
		b.WriteString(cmd.description)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
