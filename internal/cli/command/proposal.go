package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
)

// ProposalCommand returns the proposal subcommand group.
func ProposalCommand() *cli.Command {
	return &cli.Command{
		Name:    "proposal",
		Aliases: []string{"prop"},
		Usage:   "Create and resolve proposals",
		Subcommands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Open a proposal, locking the anti-spam deposit",
				ArgsUsage: "ORG",
				Action:    proposalCreate,
			},
			{
				Name:      "list",
				Usage:     "List active proposals of an organization",
				ArgsUsage: "ORG",
				Action:    proposalList,
			},
			{
				Name:      "get",
				Usage:     "Show an archived proposal",
				ArgsUsage: "ID",
				Action:    proposalGet,
			},
			{
				Name:      "meta",
				Usage:     "Show proposal metadata",
				ArgsUsage: "ID",
				Action:    proposalMeta,
			},
			{
				Name:      "set-meta",
				Usage:     "Attach metadata once (proposal owner only)",
				ArgsUsage: "ORG ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Document URL", Required: true},
					&cli.StringFlag{Name: "hash", Usage: "Document hash", Required: true},
				},
				Action: proposalSetMeta,
			},
			{
				Name:      "fault",
				Usage:     "Mark a proposal faulty (organization owner only)",
				ArgsUsage: "ORG ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}, Usage: "Fault reason", Required: true},
				},
				Action: proposalFault,
			},
			{
				Name:      "finalize",
				Usage:     "Resolve a proposal whose voting window has ended",
				ArgsUsage: "ORG ID",
				Action:    proposalFinalize,
			},
			{
				Name:      "implemented",
				Usage:     "Mark an accepted proposal implemented",
				ArgsUsage: "ID",
				Action:    proposalImplemented,
			},
			{
				Name:      "vote-of",
				Usage:     "Show how a voter voted",
				ArgsUsage: "ID VOTER",
				Action:    proposalVoteOf,
			},
		},
	}
}

// VoteCommand returns the vote command.
func VoteCommand() *cli.Command {
	return &cli.Command{
		Name:      "vote",
		Usage:     "Vote on an active proposal as the principal",
		ArgsUsage: "ORG ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "for", Usage: "Vote in favor"},
			&cli.BoolFlag{Name: "against", Usage: "Vote against"},
		},
		Action: vote,
	}
}

// proposalPath parses ORG ID into /v1/orgs/{org}/proposals/{id}.
func proposalPath(c *cli.Context) (string, error) {
	a, err := args(c, "ORG", "ID")
	if err != nil {
		return "", err
	}
	id, err := parseUint32("ID", a[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/v1/orgs/%s/proposals/%d", seg(a[0]), id), nil
}

func proposalID(c *cli.Context) (uint32, error) {
	a, err := args(c, "ID")
	if err != nil {
		return 0, err
	}
	return parseUint32("ID", a[0])
}

func proposalCreate(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var resp handler.CreateProposalResponse
		return &resp, client.Post(ctx, "/v1/orgs/"+seg(a[0])+"/proposals", struct{}{}, &resp)
	})
}

func proposalList(c *cli.Context) error {
	a, err := args(c, "ORG")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var active []domain.ActiveProposal
		return &active, client.Get(ctx, "/v1/orgs/"+seg(a[0])+"/proposals", &active)
	})
}

func proposalGet(c *cli.Context) error {
	id, err := proposalID(c)
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var p domain.Proposal
		return &p, client.Get(ctx, fmt.Sprintf("/v1/proposals/%d", id), &p)
	})
}

func proposalMeta(c *cli.Context) error {
	id, err := proposalID(c)
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var meta domain.Metadata
		return &meta, client.Get(ctx, fmt.Sprintf("/v1/proposals/%d/metadata", id), &meta)
	})
}

func proposalSetMeta(c *cli.Context) error {
	path, err := proposalPath(c)
	if err != nil {
		return err
	}
	meta := domain.Metadata{URL: c.String("url"), Hash: c.String("hash")}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var stored domain.Metadata
		return &stored, client.Post(ctx, path+"/metadata", meta, &stored)
	})
}

func proposalFault(c *cli.Context) error {
	path, err := proposalPath(c)
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var p domain.Proposal
		return &p, client.Post(ctx, path+"/fault", handler.FaultRequest{Reason: c.String("reason")}, &p)
	})
}

func proposalFinalize(c *cli.Context) error {
	path, err := proposalPath(c)
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var p domain.Proposal
		return &p, client.Post(ctx, path+"/finalize", struct{}{}, &p)
	})
}

func proposalImplemented(c *cli.Context) error {
	id, err := proposalID(c)
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var p domain.Proposal
		return &p, client.Post(ctx, fmt.Sprintf("/v1/proposals/%d/implemented", id), struct{}{}, &p)
	})
}

func proposalVoteOf(c *cli.Context) error {
	a, err := args(c, "ID", "VOTER")
	if err != nil {
		return err
	}
	id, err := parseUint32("ID", a[0])
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var v handler.VoteOfResponse
		return &v, client.Get(ctx, fmt.Sprintf("/v1/proposals/%d/votes/%s", id, seg(a[1])), &v)
	})
}

func vote(c *cli.Context) error {
	path, err := proposalPath(c)
	if err != nil {
		return err
	}
	inFavor := c.Bool("for")
	if inFavor == c.Bool("against") {
		return errors.New("exactly one of --for or --against is required")
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var result service.VoteResult
		return &result, client.Post(ctx, path+"/votes", handler.VoteRequest{InFavor: &inFavor}, &result)
	})
}
