package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang-insider-scanner/internal/detector/config"
	"golang-insider-scanner/internal/detector/repository"
	"golang-insider-scanner/internal/detector/service"
	delivery "golang-insider-scanner/internal/scheduler/delivery/http"
	schedulerRepository "golang-insider-scanner/internal/scheduler/repository"
	schedulerService "golang-insider-scanner/internal/scheduler/service"
	"golang-insider-scanner/pkg/common"
	"golang-insider-scanner/pkg/logger"
	"golang-insider-scanner/pkg/postgres"
	"golang-insider-scanner/pkg/redis"
	"golang-insider-scanner/pkg/telegram"
	"golang-insider-scanner/pkg/utils"

	"github.com/spf13/cobra"
)

var configPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scans stored purchases once for cluster buys",
	Run:   runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the detector on its cron schedule",
	Run:   runSchedule,
}

type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *postgres.DB
	redis     *redis.Client
	scheduler schedulerService.SchedulerService
	history   schedulerService.ExecutionHistoryService
	jobName   string
}

func bootstrap() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.Info("Starting cluster buy detector",
		logger.StringField("name", cfg.App.Name),
		logger.IntField("window_days", cfg.Detector.WindowDays),
		logger.IntField("min_insiders", cfg.Detector.MinInsiders),
	)

	db, err := postgres.NewDB(postgres.Config{
		URL:             cfg.Database.URL,
		Password:        cfg.Database.Password,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	a := &app{cfg: cfg, log: appLogger, db: db}

	opts := schedulerService.Options{
		Cron:     cfg.Scheduler.Cron,
		Location: utils.MustLoadLocation(cfg.App.TimeZone),
		LockTTL:  cfg.Scheduler.LockTTL,
	}
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewClient(redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		a.redis = redisClient
		opts.Locker = redis.NewLocker(redisClient.Client)
	}

	var publisher repository.SignalPublisher
	if a.redis != nil {
		publisher = repository.NewSignalStreamRepository(a.redis.Client, common.RedisStreamClusterBuySignals, cfg.Redis.StreamMaxLen)
	}

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Failed to initialize Telegram notifier, alerts disabled", logger.ErrorField(err))
			notifier = nil
		}
	}

	job := service.NewClusterBuyService(
		cfg,
		appLogger,
		repository.NewForm4FilingRepository(db.DB),
		repository.NewSignalRepository(db.DB),
		publisher,
		notifier,
	)

	runRepo := schedulerRepository.NewJobRunRepository(db.DB)
	a.jobName = job.GetName()
	a.scheduler = schedulerService.NewSchedulerService(job, runRepo, appLogger, opts)
	a.history = schedulerService.NewExecutionHistoryService(runRepo, appLogger)
	return a
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.db.Close()
	_ = a.log.Sync()
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	run, err := a.scheduler.RunOnce(ctx)
	if err != nil {
		a.log.Error("Detection run failed", logger.ErrorField(err))
		a.close()
		os.Exit(1)
	}
	a.log.Info("Detection run finished", logger.StringField("run_id", run.RunID), logger.StringField("status", string(run.Status)))
	a.close()
}

func runSchedule(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer a.close()

	if addr := a.cfg.Scheduler.HTTPAddr; addr != "" {
		handler := delivery.NewExecutionHistoryHandler(a.history, a.jobName, a.log)
		go func() {
			if err := delivery.Serve(ctx, addr, handler, a.log); err != nil {
				a.log.Error("HTTP server failed", logger.ErrorField(err))
				stop()
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		a.log.Error("Scheduler failed", logger.ErrorField(err))
		a.close()
		os.Exit(1)
	}
	a.log.Info("Signal detector exiting")
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "signal-detector",
		Short: "Detects cluster buys in stored insider purchases",
		Run:   runOnce,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-detector.yaml", "Path to the configuration file")

	rootCmd.AddCommand(runCmd, scheduleCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing signal-detector CLI: %s\n", err)
		os.Exit(1)
	}
}
