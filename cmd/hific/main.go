package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavofa/hific-video/internal/infra/config"
	"github.com/kavofa/hific-video/internal/infra/email"
	"github.com/kavofa/hific-video/internal/infra/ffmpeg"
	"github.com/kavofa/hific-video/internal/infra/imagefile"
	"github.com/kavofa/hific-video/internal/infra/metrics"
	miniostorage "github.com/kavofa/hific-video/internal/infra/minio"
	"github.com/kavofa/hific-video/internal/infra/postgres"
	"github.com/kavofa/hific-video/internal/infra/progress"
	"github.com/kavofa/hific-video/internal/infra/rabbitmq"
	"github.com/kavofa/hific-video/internal/infra/statsfile"
	"github.com/kavofa/hific-video/internal/infra/tfci"
	"github.com/kavofa/hific-video/internal/infra/tracing"
	"github.com/kavofa/hific-video/internal/usecase"
	"github.com/kavofa/hific-video/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting hific-video",
		zap.String("input_video", cfg.InputVideo),
		zap.String("model", cfg.Model),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	shutdownTracing, err := tracing.Init(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			shutdownTracing(shutdownCtx)
		}()
	}

	if cfg.MetricsPort > 0 {
		stopMetrics := metrics.Serve(cfg.MetricsPort, log)
		defer stopMetrics()
	}

	naming := cfg.Naming()

	codec, err := tfci.NewCodec(cfg.TFCICommand, log)
	fatalOnErr(err, "create tfci codec")

	deps := usecase.PipelineDeps{
		Extractor: ffmpeg.NewExtractor(cfg.FFmpegBin, cfg.FFprobeBin, naming, log),
		Encoder:   ffmpeg.NewEncoder(cfg.FFmpegBin, log),
		Codec:     codec,
		Inspector: imagefile.NewInspector(),
		Resizer:   imagefile.NewResizer(),
		Zipper:    ffmpeg.NewZipCreator(),
		Stats:     statsfile.NewStore(),
		Progress:  progress.Nop{},
	}
	if cfg.ShowProgress {
		deps.Progress = progress.NewBar(os.Stderr)
	}

	// Object storage
	if cfg.MinIOEndpoint != "" {
		storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
		})
		fatalOnErr(err, "create minio storage")
		fatalOnErr(storage.EnsureBucket(ctx), "ensure minio bucket")
		deps.Storage = storage
	}

	// Database
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		fatalOnErr(err, "connect to postgres")
		defer pool.Close()
		fatalOnErr(postgres.RunMigrations(ctx, pool), "run migrations")
		deps.Repo = postgres.NewRunRepository(pool)
	}

	// RabbitMQ status publisher
	if cfg.RabbitMQURL != "" {
		rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
		fatalOnErr(err, "connect to rabbitmq")
		defer rmqConn.Close()

		pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
		fatalOnErr(err, "create rabbitmq publisher")
		defer pub.Close()
		deps.Publisher = rabbitmq.NewStatusPublisher(pub)
	}

	if cfg.SMTPHost != "" {
		deps.Notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.NotificationTo, log)
	}

	pipelineCfg := usecase.PipelineConfig{
		InputVideo:      cfg.InputVideo,
		InputKey:        cfg.MinIOInputKey,
		FramesDir:       cfg.FramesDir,
		OutputDir:       cfg.OutputDir,
		CompressedZip:   cfg.CompressedZip,
		DecompressedZip: cfg.DecompressedZip,
		StatsPath:       cfg.StatsPath,
		OutputVideo:     cfg.OutputVideo,
		OutputFPS:       cfg.OutputFPS,
		DownsizeEnabled: cfg.DownsizeEnabled,
		DownsizeFactor:  cfg.DownsizeFactor,
		FailFast:        cfg.FailFast,
		WorkerCount:     cfg.WorkerCount,
		Naming:          naming,
	}

	res, err := usecase.NewPipeline(deps, log, pipelineCfg).Execute(ctx)
	if err != nil {
		log.Error("pipeline failed", zap.Error(err))
		return 1
	}

	usecase.WriteSummary(os.Stdout, res, pipelineCfg)
	log.Info("hific-video finished", zap.String("run_id", res.Run.ID.String()))
	return 0
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %s", msg, err.Error()))
	}
}
