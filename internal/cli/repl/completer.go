package repl

import (
	"sort"
	"strings"
)

var builtins = []string{"complete", "exit", "help", "history", "quit"}

// Completer provides command completion for the REPL.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over commands plus the shell builtins.
func NewCompleter(commands []string) *Completer {
	seen := make(map[string]bool)
	var all []string
	for _, cmd := range append(append([]string(nil), commands...), builtins...) {
		if cmd == "" || seen[cmd] {
			continue
		}
		seen[cmd] = true
		all = append(all, cmd)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns the known commands that start with prefix, in sorted
// order. An empty prefix returns everything.
func (c *Completer) Complete(prefix string) []string {
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
