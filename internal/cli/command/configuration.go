package command

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/core/domain"
)

// ConfigCommand returns the config subcommand group, which manages the
// governance configuration of an organization.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:    "config",
		Aliases: []string{"cfg"},
		Usage:   "Manage organization governance configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set the configuration (organization owner only)",
				ArgsUsage: "ORG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "duration", Aliases: []string{"d"}, Usage: "Proposal duration in seconds", Required: true},
					&cli.StringFlag{Name: "min-threshold", Aliases: []string{"t"}, Usage: "Minimum in-favor power for acceptance", Required: true},
					&cli.StringFlag{Name: "deposit", Usage: "Anti-spam deposit override"},
					&cli.StringFlag{Name: "mode", Usage: "Voting mode: weighted or member"},
				},
				Action: configSet,
			},
			{
				Name:      "get",
				Usage:     "Show the configuration",
				ArgsUsage: "ORG",
				Action:    configGet,
			},
			{
				Name:      "remove",
				Usage:     "Remove the configuration",
				ArgsUsage: "ORG",
				Action:    configRemove,
			},
		},
	}
}

func configSet(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	duration, err := parseUint32("duration", c.String("duration"))
	if err != nil {
		return err
	}
	threshold, err := parseAmount("min-threshold", c.String("min-threshold"))
	if err != nil {
		return err
	}

	cfg := domain.Configuration{
		ProposalDuration: duration,
		MinThreshold:     *threshold,
		VotingMode:       domain.VotingMode(c.String("mode")),
	}
	if c.IsSet("deposit") {
		if cfg.TokenDeposit, err = parseAmount("deposit", c.String("deposit")); err != nil {
			return err
		}
	}

	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var stored domain.Configuration
		return &stored, client.Put(ctx, "/v1/orgs/"+seg(a[0])+"/configuration", cfg, &stored)
	})
}

func configGet(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var cfg domain.Configuration
		return &cfg, client.Get(ctx, "/v1/orgs/"+seg(a[0])+"/configuration", &cfg)
	})
}

func configRemove(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var result map[string]any
		return &result, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/configuration/remove", struct{}{}, &result)
	})
}
