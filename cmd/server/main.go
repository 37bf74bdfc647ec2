// Package main is the entry point for the adbid-engine control plane. It
// wires configuration, the warehouse, every decision engine, the HTTP
// shell, and the cron scheduler together, then runs until a shutdown
// signal arrives.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mbicorp/adbid-engine/internal/apply"
	"github.com/mbicorp/adbid-engine/internal/bid"
	"github.com/mbicorp/adbid-engine/internal/budget"
	"github.com/mbicorp/adbid-engine/internal/config"
	"github.com/mbicorp/adbid-engine/internal/lifecycle"
	"github.com/mbicorp/adbid-engine/internal/negative"
	"github.com/mbicorp/adbid-engine/internal/notify"
	"github.com/mbicorp/adbid-engine/internal/orchestrator"
	"github.com/mbicorp/adbid-engine/internal/reliability"
	"github.com/mbicorp/adbid-engine/internal/scheduler"
	"github.com/mbicorp/adbid-engine/internal/seo"
	"github.com/mbicorp/adbid-engine/internal/server"
	"github.com/mbicorp/adbid-engine/internal/warehouse"
	"github.com/mbicorp/adbid-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Level: "info", Pretty: true}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Str("mode", string(cfg.BidEngineExecutionMode)).Msg("starting adbid-engine")

	db, err := warehouse.New(cfg.WarehousePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open warehouse")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to apply warehouse schema")
	}

	inputs := warehouse.NewInputRepository(db)
	searchTerms := warehouse.NewSearchTermRepository(db)
	recs := warehouse.NewRecommendationRepository(db)
	backtests := warehouse.NewBacktestRepository(db)

	bidEngine := bid.NewEngine(bid.DefaultEngineConfig(), log)

	var applySink *apply.Sink
	if cfg.BidEngineExecutionMode == config.ModeApply {
		log.Warn().Msg("BID_ENGINE_EXECUTION_MODE=APPLY requires a concrete ad-platform adapter; none is wired in this deployment, apply calls will be no-ops")
	}

	wsNotifier := notify.NewWebsocketNotifier(log)
	notifier := notify.NewFanout(notify.NewLoggingNotifier(log), wsNotifier)

	orc := orchestrator.New(orchestrator.Deps{
		Config:             *cfg,
		Log:                log,
		Inputs:             inputs,
		SearchTerms:        searchTerms,
		Recs:               recs,
		Backtests:          backtests,
		BidEngine:          bidEngine,
		BudgetConfig:       budget.DefaultConfig(),
		NegativeConfig:     negative.DefaultConfig(),
		AutoExactConfig:    negative.DefaultAutoExactConfig(),
		SeoEvaluatorConfig: seo.DefaultEvaluatorConfig(),
		LaunchExitConfig:   seo.DefaultLaunchExitConfig(),
		LifecycleConfig:    lifecycle.DefaultConfig(),
		ApplySink:          applySink,
		Notifier:           notifier,
	})

	srv := server.New(server.Config{
		Port:         cfg.Port,
		Log:          log,
		Config:       cfg,
		DevMode:      cfg.DevMode,
		Orchestrator: orc,
		Recs:         recs,
		Inputs:       inputs,
		Backtests:    backtests,
		Dashboard:    wsNotifier,
		StartedAt:    time.Now(),
	})

	sched := scheduler.New(log)
	registerScheduledJobs(sched, orc, log)
	registerBackupJob(sched, cfg, db, log)
	sched.Start()
	defer sched.Stop()

	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	waitForShutdown(log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

// registerScheduledJobs wires the minute/hour cadence the cron routes in
// §6 also expose for manual triggering (the scheduler and the HTTP cron
// handlers call the same orchestrator methods, per spec.md §6).
func registerScheduledJobs(sched *scheduler.Scheduler, orc *orchestrator.Orchestrator, log zerolog.Logger) {
	jobs := []struct {
		schedule string
		job      scheduler.Job
	}{
		{"0 */2 * * * *", scheduler.NewBidEngineJob("bid-engine-normal", orc, orchestrator.RunOptions{})},
		{"0 */15 * * * *", scheduler.NewBidEngineJob("bid-engine-smode", orc, orchestrator.RunOptions{})},
		{"0 0 * * * *", scheduler.NewBudgetOptimizationJob("budget-optimization", orc, orchestrator.RunOptions{})},
		{"0 30 * * * *", scheduler.NewNegativeJudgerJob("negative-judger", orc, orchestrator.RunOptions{})},
		{"0 0 0 * * *", scheduler.NewLifecycleUpdateJob("lifecycle-update", orc, orchestrator.RunOptions{})},
		{"0 0 3 * * 1", scheduler.NewBacktestWeeklyJob(orc, func() orchestrator.BacktestParams {
			now := time.Now()
			return orchestrator.BacktestParams{
				Start:       now.AddDate(0, 0, -7),
				End:         now,
				Granularity: "WEEKLY",
				MarginRate:  0.3,
			}
		})},
	}

	for _, j := range jobs {
		if err := sched.AddJob(j.schedule, j.job); err != nil {
			log.Error().Err(err).Str("job", j.job.Name()).Msg("failed to register scheduled job")
		}
	}
}

// registerBackupJob wires the warehouse-to-S3 backup cadence when a bucket
// is configured; deployments that leave ADBID_S3_BACKUP_BUCKET empty run
// without off-host backups.
func registerBackupJob(sched *scheduler.Scheduler, cfg *config.Config, db *warehouse.DB, log zerolog.Logger) {
	if cfg.S3BackupBucket == "" {
		log.Info().Msg("no S3 backup bucket configured, warehouse backups disabled")
		return
	}

	client, err := reliability.NewDefaultS3Client(context.Background(), cfg.S3Region)
	if err != nil {
		log.Error().Err(err).Msg("failed to build S3 client, warehouse backups disabled")
		return
	}

	backupSvc := reliability.New(client, cfg.S3BackupBucket, db.Path(), cfg.DataDir, log)
	job := reliability.NewJob(backupSvc, 30, 7)
	if err := sched.AddJob("0 0 */6 * * *", job); err != nil {
		log.Error().Err(err).Msg("failed to register warehouse backup job")
	}
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
}
