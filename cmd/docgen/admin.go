package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zeptools/gw-docgen/conf"
	"github.com/zeptools/gw-docgen/uds"
)

// adminCommands are served on the admin unix socket
func adminCommands(core *conf.Core) uds.CommandStore {
	return uds.CommandStore{
		"reload-company": {
			Desc:  "reload config/.company.json",
			Usage: "reload-company",
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				if err := core.ReloadCompany(); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "company profile reloaded: %s\n", core.GetCompany().Name)
				return err
			},
		},
		"purge": {
			Desc:  "remove expired documents now",
			Usage: "purge",
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				n, err := core.DocStore.PurgeExpired(ctx, time.Now())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w, "purged %d expired documents\n", n)
				return err
			},
		},
		"stats": {
			Desc:  "show storage and scheduler state",
			Usage: "stats",
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				n, err := core.DocStore.Count(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(w,
					"documents: %d\nstorage: %s\nengine: %s\ncompany: %s\ncron jobs: %d\npending one-time jobs: %d\n",
					n, core.Storage, core.Renderer.Name(), core.GetCompany().Name,
					len(core.JobScheduler.GetCronJobs()), core.JobScheduler.PendingOneTimeJobs())
				return err
			},
		},
	}
}
