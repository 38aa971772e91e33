package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
)

// OrgCommand returns the org subcommand group.
func OrgCommand() *cli.Command {
	return &cli.Command{
		Name:    "org",
		Aliases: []string{"organization"},
		Usage:   "Manage organizations",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Register an organization owned by the principal",
				ArgsUsage: "ORG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Display name"},
				},
				Action: orgCreate,
			},
			{
				Name:      "get",
				Usage:     "Show an organization",
				ArgsUsage: "ORG",
				Action:    orgGet,
			},
			{
				Name:      "set-owner",
				Usage:     "Transfer organization ownership",
				ArgsUsage: "ORG NEW_OWNER",
				Action:    orgSetOwner,
			},
			{
				Name:      "set-hook",
				Usage:     "Attach a registered hook (empty string clears it)",
				ArgsUsage: "ORG HOOK",
				Action:    orgSetHook,
			},
			{
				Name:      "issue-token",
				Usage:     "Issue the organization governance token",
				ArgsUsage: "ORG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "address", Aliases: []string{"a"}, Usage: "Token address", Required: true},
					&cli.StringFlag{Name: "symbol", Usage: "Token symbol", Required: true},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Token name (defaults to the symbol)"},
				},
				Action: orgIssueToken,
			},
			{
				Name:      "destroy",
				Usage:     "Destroy an organization and its configuration",
				ArgsUsage: "ORG",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Skip confirmation"},
				},
				Action: orgDestroy,
			},
			{
				Name:      "events",
				Usage:     "Show recent events of an organization",
				ArgsUsage: "ORG",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum events"},
				},
				Action: orgEvents,
			},
		},
	}
}

func orgCreate(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var org domain.Organization
		req := handler.CreateOrganizationRequest{ID: domain.Address(a[0]), Name: c.String("name")}
		return &org, client.Post(ctx, "/v1/orgs", req, &org)
	})
}

func orgGet(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var org domain.Organization
		return &org, client.Get(ctx, "/v1/orgs/"+seg(a[0]), &org)
	})
}

func orgSetOwner(c *cli.Context) error {
	a, err := args(c, "ORG", "NEW_OWNER")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var org domain.Organization
		req := handler.ChangeOwnerRequest{Owner: domain.Address(a[1])}
		return &org, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/owner", req, &org)
	})
}

func orgSetHook(c *cli.Context) error {
	a, err := args(c, "ORG", "HOOK")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var org domain.Organization
		req := handler.SetHookRequest{Hook: domain.Address(a[1])}
		return &org, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/hook", req, &org)
	})
}

func orgIssueToken(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var info domain.TokenInfo
		req := handler.IssueTokenRequest{
			Address: domain.Address(c.String("address")),
			Symbol:  c.String("symbol"),
			Name:    c.String("name"),
		}
		if req.Name == "" {
			req.Name = req.Symbol
		}
		return &info, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/token", req, &info)
	})
}

func orgDestroy(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	if !c.Bool("force") {
		ok, err := confirm(c, fmt.Sprintf("Destroy organization %s? [y/N]: ", a[0]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(c.App.Writer, "Aborted.")
			return nil
		}
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var result map[string]any
		return &result, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/destroy", struct{}{}, &result)
	})
}

func orgEvents(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var events []domain.Event
		path := fmt.Sprintf("/v1/orgs/%s/events?limit=%d", seg(a[0]), c.Int("limit"))
		return &events, client.Get(ctx, path, &events)
	})
}
