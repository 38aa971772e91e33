package command

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/govmesh-go/internal/cli/connection"
	"github.com/yndnr/govmesh-go/internal/cli/output"
	"github.com/yndnr/govmesh-go/internal/core/domain"
	"github.com/yndnr/govmesh-go/internal/core/service"
	"github.com/yndnr/govmesh-go/internal/server/httpserver/handler"
	"github.com/yndnr/govmesh-go/pkg/token"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server probes, ledger clock and administration",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check server readiness",
				Action: systemReady,
			},
			{
				Name:   "clock",
				Usage:  "Show the ledger clock",
				Action: systemClock,
			},
			{
				Name:      "advance",
				Usage:     "Advance the manual ledger clock (admin)",
				ArgsUsage: "DELTA",
				Action:    systemAdvance,
			},
			{
				Name:   "status",
				Usage:  "Show server and store status (admin)",
				Action: systemStatus,
			},
			{
				Name:   "orgs",
				Usage:  "List every organization (admin)",
				Action: systemOrgs,
			},
			{
				Name:  "events",
				Usage: "Show recent events across organizations (admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "org", Usage: "Only events of this organization"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum events"},
				},
				Action: systemEvents,
			},
			{
				Name:  "backup",
				Usage: "Download a store backup (admin)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Output file", Required: true},
				},
				Action: systemBackup,
			},
			{
				Name:   "gen-key",
				Usage:  "Generate an admin key and its argon2id hash",
				Action: systemGenKey,
			},
			{
				Name:      "hash-key",
				Usage:     "Print the argon2id hash of an admin key",
				ArgsUsage: "KEY",
				Action:    systemHashKey,
			},
		},
	}
}

// KeyResponse is the output of gen-key and hash-key.
type KeyResponse struct {
	Key         string `json:"key,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Hash        string `json:"hash"`
}

func systemHealth(c *cli.Context) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var status map[string]string
		if err := client.Get(ctx, "/health", &status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func systemReady(c *cli.Context) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var status map[string]string
		if err := client.Get(ctx, "/ready", &status); err != nil {
			return nil, err
		}
		return status, nil
	})
}

func systemClock(c *cli.Context) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var clock handler.ClockResponse
		return &clock, client.Get(ctx, "/v1/clock", &clock)
	})
}

func systemAdvance(c *cli.Context) error {
	a, err := args(c, "DELTA")
	if err != nil {
		return err
	}
	delta, err := parseUint32("DELTA", a[0])
	if err != nil {
		return err
	}
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var clock handler.ClockResponse
		return &clock, client.Post(ctx, "/admin/v1/clock/advance", handler.AdvanceClockRequest{Delta: delta}, &clock)
	})
}

func systemStatus(c *cli.Context) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var status handler.StatusResponse
		return &status, client.Get(ctx, "/admin/v1/status", &status)
	})
}

func systemOrgs(c *cli.Context) error {
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var orgs []domain.Organization
		return &orgs, client.Get(ctx, "/admin/v1/orgs", &orgs)
	})
}

func systemEvents(c *cli.Context) error {
	q := url.Values{}
	if org := c.String("org"); org != "" {
		q.Set("org", org)
	}
	q.Set("limit", fmt.Sprint(c.Int("limit")))
	return call(c, func(ctx context.Context, client *connection.HTTPClient) (any, error) {
		var events []domain.Event
		return &events, client.Get(ctx, "/admin/v1/events?"+q.Encode(), &events)
	})
}

func systemBackup(c *cli.Context) error {
	client, flags, err := newClient(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, flags.Timeout)
	defer cancel()

	progress := output.NewProgress(errWriter(c), "Downloading", 0)
	n, err := client.Download(ctx, "/admin/v1/backup", io.MultiWriter(f, progress))
	progress.Done()
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync backup file: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Backup written to %s (%s)\n", path, output.FormatBytes(n))
	return nil
}

func systemGenKey(c *cli.Context) error {
	key, err := token.GenerateAdminKey()
	if err != nil {
		return fmt.Errorf("generate admin key: %w", err)
	}
	hash, err := service.HashAdminKey(key)
	if err != nil {
		return err
	}
	return render(c, &KeyResponse{Key: key, Fingerprint: token.Fingerprint(key), Hash: hash})
}

func systemHashKey(c *cli.Context) error {
	a, err := args(c, "KEY")
	if err != nil {
		return err
	}
	hash, err := service.HashAdminKey(a[0])
	if err != nil {
		return err
	}
	return render(c, &KeyResponse{Fingerprint: token.Fingerprint(a[0]), Hash: hash})
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
