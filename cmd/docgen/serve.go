package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/conf"
	"github.com/zeptools/gw-docgen/docstore"
	"github.com/zeptools/gw-docgen/routing"
	"github.com/zeptools/gw-docgen/schedjobs"
	"github.com/zeptools/gw-docgen/web/docs"
)

const (
	throttleCleanupCycle     = time.Minute
	throttleCleanupOlderThan = 10 * time.Minute
	bootPurgeDelay           = time.Minute
)

func runServe(cmd *cobra.Command, args []string) error {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	core, err := conf.BaseInit(appRoot, rootCtx, rootCancel, verbose)
	if err != nil {
		return err
	}
	defer core.ResourceCleanUp()

	if err = prepare(core); err != nil {
		core.Logger.Error("startup failed", zap.Error(err))
		return err
	}
	if err = core.StartServices(); err != nil {
		core.Logger.Error("starting services failed", zap.Error(err))
		core.RootCancel()
		return err
	}

	bootPurge := &schedjobs.OneTimeJob{
		ID:       "docstore-boot-purge",
		ExecTime: time.Now().Add(bootPurgeDelay),
		Task:     docstore.PurgeTask(core.DocStore, time.Now, core.Logger),
	}
	if err = core.JobScheduler.AddOneTimeJob(bootPurge); err != nil {
		core.Logger.Warn("boot purge not scheduled", zap.Error(err))
	}

	core.Logger.Info("docgen started",
		zap.String("version", version),
		zap.String("listen", core.WebService.Addr()),
		zap.String("engine", core.Renderer.Name()),
		zap.String("storage", core.Storage))

	if err = core.WaitServicesDone(); err != nil {
		core.RootCancel() // stop the others
		return err
	}
	core.Logger.Info("all services stopped")
	return nil
}

// prepare wires every component into core, in dependency order
func prepare(core *conf.Core) error {
	if err := core.PrepareCompany(); err != nil {
		return err
	}
	if err := core.PrepareCompanyWatcher(); err != nil {
		return err
	}
	if err := core.PrepareDocStore(); err != nil {
		return err
	}
	if err := core.PrepareRenderer(); err != nil {
		return err
	}
	core.PrepareShareTokens()
	if err := core.PrepareThrottleBucketStore(throttleCleanupCycle, throttleCleanupOlderThan); err != nil {
		return err
	}

	core.PrepareJobScheduler()
	core.JobScheduler.AddCronJob(docstore.NewPurgeJob(core.DocStore, core.Logger))

	handler, err := docs.NewHandler(docs.Deps{
		Store:     core.DocStore,
		Renderer:  core.Renderer,
		Tokens:    core.ShareTokens,
		Company:   core.GetCompany,
		Locks:     core.ActionLocks,
		Host:      core.Host,
		Retention: core.RetentionDuration(),
		EmbedQR:   core.EmbedQR,
		Logger:    core.Logger,
	})
	if err != nil {
		return err
	}
	core.PrepareWebService(handler.Routes(routing.Throttle(core.ThrottleBucketStore, conf.ThrottleGroupPost)))

	if core.AdminSocket != "" {
		core.PrepareUDSService(adminCommands(core))
	}
	return nil
}
