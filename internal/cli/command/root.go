package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/config"
	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/cli/output"
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/infra/buildinfo"
)

const profileKey = "profile"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "govmesh-cli",
		Usage:                "GovMesh governance command-line tool",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		Commands:             Commands(),
		Before:               before,
		EnableBashCompletion: true,
	}
}

// Commands returns the top-level command set.
func Commands() []*cli.Command {
	return []*cli.Command{
		OrgCommand(),
		ConfigCommand(),
		ProposalCommand(),
		VoteCommand(),
		TokenCommand(),
		SystemCommand(),
		ProfileCommand(),
		ShellCommand(),
	}
}

// globalFlags returns the global CLI flags. Unset flags fall back to the
// profile.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI profile path (default ~/.govmesh/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "govmesh-server address (e.g., http://127.0.0.1:5380)",
		},
		&cli.StringFlag{
			Name:    "principal",
			Aliases: []string{"p"},
			Usage:   "Caller identity sent as X-Principal",
		},
		&cli.StringFlag{
			Name:    "admin-key",
			Aliases: []string{"K"},
			Usage:   "Admin key for /admin routes",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle used to verify the server certificate",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout",
		},
	}
}

// GlobalFlags is the effective connection and output setup of a command.
type GlobalFlags struct {
	Server    string
	Principal string
	AdminKey  string
	Output    string
	CAFile    string
	Wide      bool
	Timeout   time.Duration
}

func before(c *cli.Context) error {
	p, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[profileKey] = p

	_, err = output.ParseFormat(ParseGlobalFlags(c).Output)
	return err
}

// profile returns the profile loaded by before, or the defaults.
func profile(c *cli.Context) *config.CLIConfig {
	if p, ok := c.App.Metadata[profileKey].(*config.CLIConfig); ok {
		return p
	}
	return config.Default()
}

// ParseGlobalFlags merges explicit flags over the profile.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	p := profile(c)
	f := &GlobalFlags{
		Server:    p.Server,
		Principal: p.Principal,
		AdminKey:  p.AdminKey,
		Output:    p.Output,
		CAFile:    p.CAFile,
		Timeout:   p.Timeout,
		Wide:      c.Bool("wide"),
	}
	if c.IsSet("server") {
		f.Server = c.String("server")
	}
	if c.IsSet("principal") {
		f.Principal = c.String("principal")
	}
	if c.IsSet("admin-key") {
		f.AdminKey = c.String("admin-key")
	}
	if c.IsSet("output") {
		f.Output = c.String("output")
	}
	if c.IsSet("ca-file") {
		f.CAFile = c.String("ca-file")
	}
	if c.IsSet("timeout") {
		f.Timeout = c.Duration("timeout")
	}
	if f.Timeout <= 0 {
		f.Timeout = 30 * time.Second
	}
	return f
}

// newClient builds the HTTP client for c.
func newClient(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags := ParseGlobalFlags(c)
	client, err := connection.NewHTTPClient(flags.Server, connection.Options{
		Principal: flags.Principal,
		AdminKey:  flags.AdminKey,
		CAFile:    flags.CAFile,
		Timeout:   flags.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, flags, nil
}

// call runs fn against the server and renders its result.
func call(c *cli.Context, fn func(ctx context.Context, client *connection.HTTPClient) (any, error)) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	result, err := fn(ctx, client)
	if err != nil {
		return err
	}
	return render(c, result)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	format, err := output.ParseFormat(flags.Output)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, flags.Wide).Format(c.App.Writer, data)
}

// args returns exactly the positional arguments named in names.
func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, fmt.Errorf("usage: %s %s", c.Command.HelpName, strings.Join(names, " "))
	}
	return c.Args().Slice(), nil
}

func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned 32-bit integer, got %q", name, s)
	}
	return uint32(v), nil
}

func parseAmount(name, s string) (*domain.Amount, error) {
	a, err := domain.ParseAmount(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &a, nil
}

// seg escapes one path segment.
func seg(s string) string {
	return url.PathEscape(s)
}

// confirm prompts on the app writer and reads a yes/no answer.
func confirm(c *cli.Context, prompt string) (bool, error) {
	fmt.Fprint(c.App.Writer, prompt)
	answer, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
