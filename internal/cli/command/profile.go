package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/config"
	"github.com/yndnr/govmesh-go/pkg/token"
)

// ProfileCommand returns the profile subcommand group.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "profile",
		Usage: "Show or save the CLI connection profile",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective profile",
				Action: profileShow,
			},
			{
				Name:   "save",
				Usage:  "Save the effective profile, including flags given on this command line",
				Action: profileSave,
			},
		},
	}
}

// ProfileView is the profile as printed. The admin key is reduced to its
// fingerprint.
type ProfileView struct {
	Path      string `json:"path"`
	Server    string `json:"server"`
	Principal string `json:"principal"`
	AdminKey  string `json:"admin_key"`
	Output    string `json:"output"`
	CAFile    string `json:"ca_file"`
	Timeout   string `json:"timeout"`
}

func profilePath(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

// effective returns the profile with the command line applied.
func effective(c *cli.Context) *config.CLIConfig {
	flags := ParseGlobalFlags(c)
	return &config.CLIConfig{
		Server:    flags.Server,
		Principal: flags.Principal,
		AdminKey:  flags.AdminKey,
		Output:    flags.Output,
		CAFile:    flags.CAFile,
		Timeout:   flags.Timeout,
	}
}

func profileShow(c *cli.Context) error {
	p := effective(c)
	view := &ProfileView{
		Path:      profilePath(c),
		Server:    p.Server,
		Principal: p.Principal,
		Output:    p.Output,
		CAFile:    p.CAFile,
		Timeout:   p.Timeout.String(),
	}
	if p.AdminKey != "" {
		view.AdminKey = "fp:" + token.Fingerprint(p.AdminKey)
	}
	return render(c, view)
}

func profileSave(c *cli.Context) error {
	path := profilePath(c)
	if err := config.Save(effective(c), path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Profile saved to %s\n", path)
	return nil
}
