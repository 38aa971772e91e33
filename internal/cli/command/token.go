package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Inspect and move governance token balances",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show token metadata",
				ArgsUsage: "TOKEN",
				Action:    tokenGet,
			},
			{
				Name:      "set-owner",
				Usage:     "Transfer token ownership",
				ArgsUsage: "TOKEN NEW_OWNER",
				Action:    tokenSetOwner,
			},
			{
				Name:      "mint",
				Usage:     "Mint the initial supply of an account (token owner only)",
				ArgsUsage: "TOKEN TO AMOUNT",
				Action:    tokenMint,
			},
			{
				Name:      "transfer",
				Usage:     "Transfer from the principal",
				ArgsUsage: "TOKEN TO AMOUNT",
				Action:    tokenTransfer,
			},
			{
				Name:      "transfer-from",
				Usage:     "Spend an allowance granted to the principal",
				ArgsUsage: "TOKEN FROM TO AMOUNT",
				Action:    tokenTransferFrom,
			},
			{
				Name:      "approve",
				Aliases:   []string{"increase"},
				Usage:     "Increase the allowance of a spender",
				ArgsUsage: "TOKEN SPENDER AMOUNT",
				Action:    tokenIncreaseAllowance,
			},
			{
				Name:      "decrease",
				Usage:     "Decrease the allowance of a spender",
				ArgsUsage: "TOKEN SPENDER AMOUNT",
				Action:    tokenDecreaseAllowance,
			},
			{
				Name:      "balance",
				Usage:     "Show the current balance of an account",
				ArgsUsage: "TOKEN ACCOUNT",
				Action:    tokenBalance,
			},
			{
				Name:      "allowance",
				Usage:     "Show what SPENDER may move on behalf of OWNER",
				ArgsUsage: "TOKEN OWNER SPENDER",
				Action:    tokenAllowance,
			},
			{
				Name:      "balance-at",
				Usage:     "Show the balance of an account as of a ledger time",
				ArgsUsage: "TOKEN ACCOUNT TIME",
				Action:    tokenBalanceAt,
			},
			{
				Name:      "checkpoints",
				Usage:     "List the balance checkpoints of an account",
				ArgsUsage: "TOKEN ACCOUNT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "index", Aliases: []string{"i"}, Usage: "Show a single checkpoint"},
				},
				Action: tokenCheckpoints,
			},
		},
	}
}

func accountPath(token, account string) string {
	return "/v1/tokens/" + seg(token) + "/accounts/" + seg(account)
}

func tokenGet(c *cli.Context) error {
	a, err := args(c, "TOKEN")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var info domain.TokenInfo
		return &info, client.Get(ctx, "/v1/tokens/"+seg(a[0]), &info)
	})
}

func tokenSetOwner(c *cli.Context) error {
	a, err := args(c, "TOKEN", "NEW_OWNER")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var info domain.TokenInfo
		req := handler.ChangeOwnerRequest{Owner: domain.Address(a[1])}
		return &info, client.Post(ctx, "/v1/tokens/"+seg(a[0])+"/owner", req, &info)
	})
}

// move posts a TransferRequest to one of the balance-changing routes.
func move(c *cli.Context, action string, req handler.TransferRequest, token string) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var bal handler.BalanceResponse
		return &bal, client.Post(ctx, "/v1/tokens/"+seg(token)+"/"+action, req, &bal)
	})
}

func tokenMint(c *cli.Context) error {
	a, err := args(c, "TOKEN", "TO", "AMOUNT")
	if err != nil {
		return err
	}
	amount, err := parseAmount("AMOUNT", a[2])
	if err != nil {
		return err
	}
	return move(c, "mint", handler.TransferRequest{To: domain.Address(a[1]), Amount: amount}, a[0])
}

func tokenTransfer(c *cli.Context) error {
	a, err := args(c, "TOKEN", "TO", "AMOUNT")
	if err != nil {
		return err
	}
	amount, err := parseAmount("AMOUNT", a[2])
	if err != nil {
		return err
	}
	return move(c, "transfer", handler.TransferRequest{To: domain.Address(a[1]), Amount: amount}, a[0])
}

func tokenTransferFrom(c *cli.Context) error {
	a, err := args(c, "TOKEN", "FROM", "TO", "AMOUNT")
	if err != nil {
		return err
	}
	amount, err := parseAmount("AMOUNT", a[3])
	if err != nil {
		return err
	}
	req := handler.TransferRequest{From: domain.Address(a[1]), To: domain.Address(a[2]), Amount: amount}
	return move(c, "transfer-from", req, a[0])
}

func changeAllowance(c *cli.Context, action string) error {
	a, err := args(c, "TOKEN", "SPENDER", "AMOUNT")
	if err != nil {
		return err
	}
	amount, err := parseAmount("AMOUNT", a[2])
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var resp handler.AllowanceResponse
		req := handler.AllowanceRequest{Spender: domain.Address(a[1]), Amount: amount}
		return &resp, client.Post(ctx, "/v1/tokens/"+seg(a[0])+"/allowance/"+action, req, &resp)
	})
}

func tokenIncreaseAllowance(c *cli.Context) error {
	return changeAllowance(c, "increase")
}

func tokenDecreaseAllowance(c *cli.Context) error {
	return changeAllowance(c, "decrease")
}

func tokenBalance(c *cli.Context) error {
	a, err := args(c, "TOKEN", "ACCOUNT")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var bal handler.BalanceResponse
		return &bal, client.Get(ctx, accountPath(a[0], a[1]), &bal)
	})
}

func tokenAllowance(c *cli.Context) error {
	a, err := args(c, "TOKEN", "OWNER", "SPENDER")
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var resp handler.AllowanceResponse
		return &resp, client.Get(ctx, accountPath(a[0], a[1])+"/allowances/"+seg(a[2]), &resp)
	})
}

func tokenBalanceAt(c *cli.Context) error {
	a, err := args(c, "TOKEN", "ACCOUNT", "TIME")
	if err != nil {
		return err
	}
	at, err := parseUint32("TIME", a[2])
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var bal handler.BalanceResponse
		return &bal, client.Get(ctx, fmt.Sprintf("%s/balance-at/%d", accountPath(a[0], a[1]), at), &bal)
	})
}

func tokenCheckpoints(c *cli.Context) error {
	a, err := args(c, "TOKEN", "ACCOUNT")
	if err != nil {
		return err
	}
	base := accountPath(a[0], a[1]) + "/checkpoints"

	if c.IsSet("index") {
		index, err := parseUint32("index", c.String("index"))
		if err != nil {
			return err
		}
		return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
			var cp domain.Checkpoint
			return &cp, client.Get(ctx, fmt.Sprintf("%s/%d", base, index), &cp)
		})
	}

	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var resp handler.CheckpointsResponse
		if err := client.Get(ctx, base, &resp); err != nil {
			return nil, err
		}
		if ParseGlobalFlags(c).Output == "table" {
			return resp.Checkpoints, nil
		}
		return &resp, nil
	})
}
