package interactions

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/tbourn/gitcord/internal/discord"
)

// MsgCommandNotFound answers commands with no registered handler.
const MsgCommandNotFound = "Command not found"

// RunFunc executes a command.
type RunFunc func(ctx context.Context, inv *Invocation) error

// AutocompleteFunc answers an autocomplete request for a command.
type AutocompleteFunc func(ctx context.Context, inv *Invocation) error

// Handler is the Go side of a command definition.
type Handler struct {
	Run          RunFunc
	Autocomplete AutocompleteFunc
}

// Command is a discovered command bound to its handler.
type Command struct {
	Definition   discord.ApplicationCommand
	RequiresLink bool
	Handler
}

type commandFile struct {
	discord.ApplicationCommand `yaml:",inline"`
	RequiresLink               *bool `yaml:"requires_link"`
}

// CommandRegistry maps command names to their definitions and handlers.
type CommandRegistry struct {
	commands map[string]*Command
}

// NewCommandRegistry returns an empty registry.
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]*Command)}
}

// Add registers cmd under its definition name; a later Add wins.
func (c *CommandRegistry) Add(cmd *Command) {
	c.commands[cmd.Definition.Name] = cmd
}

// RegisterAll discovers root/**/*.yaml in fsys, one command per file, and
// binds each to the handler registered under the command name.
func (c *CommandRegistry) RegisterAll(fsys fs.FS, root string, handlers map[string]Handler) error {
	files, err := doublestar.Glob(fsys, path.Join(root, "**", "*.yaml"))
	if err != nil {
		return fmt.Errorf("discover commands: %w", err)
	}
	sort.Strings(files)
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		var f commandFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("parse %s: missing command name", name)
		}
		h, ok := handlers[f.Name]
		if !ok {
			return fmt.Errorf("%s: no handler for command %q", name, f.Name)
		}
		requiresLink := true
		if f.RequiresLink != nil {
			requiresLink = *f.RequiresLink
		}
		c.Add(&Command{Definition: f.ApplicationCommand, RequiresLink: requiresLink, Handler: h})
	}
	return nil
}

// Lookup returns the command registered under name.
func (c *CommandRegistry) Lookup(name string) (*Command, bool) {
	cmd, ok := c.commands[name]
	return cmd, ok
}

// Dispatch returns the run function of name, or a fallback answering
// "Command not found".
func (c *CommandRegistry) Dispatch(name string) RunFunc {
	if cmd, ok := c.commands[name]; ok && cmd.Run != nil {
		return cmd.Run
	}
	return func(ctx context.Context, inv *Invocation) error {
		return inv.Responder.Respond(ctx, discord.Text(MsgCommandNotFound, true))
	}
}

// DispatchAutocomplete returns the autocomplete function of name, or a
// fallback answering an empty choice list.
func (c *CommandRegistry) DispatchAutocomplete(name string) AutocompleteFunc {
	if cmd, ok := c.commands[name]; ok && cmd.Autocomplete != nil {
		return cmd.Autocomplete
	}
	return func(ctx context.Context, inv *Invocation) error {
		return inv.Responder.Respond(ctx, discord.Choices(nil))
	}
}

// Definitions returns the registration bodies of all commands, by name.
func (c *CommandRegistry) Definitions() []discord.ApplicationCommand {
	out := make([]discord.ApplicationCommand, 0, len(c.commands))
	for _, cmd := range c.commands {
		out = append(out, cmd.Definition)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
