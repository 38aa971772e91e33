package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "history", Usage: "History file (default ~/.govmesh/history)"},
		},
		Action: shell,
	}
}

func shell(c *cli.Context) error {
	historyPath := c.String("history")
	if historyPath == "" {
		historyPath = repl.DefaultHistoryPath()
		if cfg := c.String("config"); cfg != "" {
			historyPath = filepath.Join(filepath.Dir(cfg), "history")
		}
	}

	prefix := forwardedFlags(c)
	exec := func(ctx context.Context, line []string) error {
		if len(line) > 0 && line[0] == "shell" {
			return errors.New("already in the shell")
		}
		app := App()
		app.Reader = c.App.Reader
		app.Writer = c.App.Writer
		app.ErrWriter = c.App.ErrWriter
		app.ExitErrHandler = func(*cli.Context, error) {}

		argv := append([]string{app.Name}, prefix...)
		return app.RunContext(ctx, append(argv, line...))
	}

	r := repl.New(exec,
		repl.WithIO(reader(c), c.App.Writer),
		repl.WithCompleter(repl.NewCompleter(CommandPaths(Commands()))),
		repl.WithHistory(repl.NewHistory(historyPath)),
	)

	flags := ParseGlobalFlags(c)
	fmt.Fprintf(c.App.Writer, "Connected to %s as %q. Type help for commands, exit to leave.\n",
		flags.Server, flags.Principal)

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return r.Run(ctx)
}

// forwardedFlags repeats the global flags given to the shell so each line
// runs with the same connection.
func forwardedFlags(c *cli.Context) []string {
	var argv []string
	for _, name := range []string{"config", "server", "principal", "admin-key", "output", "ca-file", "timeout"} {
		if c.IsSet(name) {
			argv = append(argv, "--"+name, fmt.Sprint(c.Value(name)))
		}
	}
	if c.Bool("wide") {
		argv = append(argv, "--wide")
	}
	return argv
}

// CommandPaths lists every command path, e.g. "org" and "org create".
func CommandPaths(cmds []*cli.Command) []string {
	var paths []string
	var walk func(prefix string, cmds []*cli.Command)
	walk = func(prefix string, cmds []*cli.Command) {
		for _, cmd := range cmds {
			path := prefix + cmd.Name
			paths = append(paths, path)
			walk(path+" ", cmd.Subcommands)
		}
	}
	walk("", cmds)
	return paths
}

func reader(c *cli.Context) io.Reader {
	if c.App.Reader != nil {
		return c.App.Reader
	}
	return os.Stdin
}
