package main

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
)

const appName = "triviacast"

// Command is one devtool subcommand
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// Registry maps subcommand names to commands
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register adds cmd. Registering the same name twice is a programming error.
func (r *Registry) Register(cmd Command) {
	if _, dup := r.commands[cmd.Name()]; dup {
		panic(fmt.Sprintf("devtool: command %q registered twice", cmd.Name()))
	}
	r.commands[cmd.Name()] = cmd
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// List returns the commands sorted by name
func (r *Registry) List() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return cmds
}

func (r *Registry) PrintHelp() {
	fmt.Printf("Usage: %s-devtool <command> [args...]\n\nCommands:\n", appName)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, cmd := range r.List() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Name(), cmd.Description())
	}
	_ = tw.Flush()
}
