package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/kavofa/hific-video/internal/domain/entity"
)

type Config struct {
	InputVideo      string `env:"INPUT_VIDEO"      envDefault:"./parrot4k.mp4"`
	FramesDir       string `env:"FRAMES_DIR"       envDefault:"./in_video"`
	OutputDir       string `env:"OUTPUT_DIR"       envDefault:"./out_video"`
	CompressedZip   string `env:"COMPRESSED_ZIP"   envDefault:"./compressed_video.hific.zip"`
	DecompressedZip string `env:"DECOMPRESSED_ZIP" envDefault:"./decompressed_video.hific.zip"`
	StatsPath       string `env:"STATS_PATH"       envDefault:"./compression_statistics.json"`
	OutputVideo     string `env:"OUTPUT_VIDEO"`

	Model     string `env:"MODEL"      envDefault:"hific-lo"`
	OutputFPS int    `env:"OUTPUT_FPS" envDefault:"25"`

	DownsizeEnabled bool `env:"DOWNSIZE_ENABLED" envDefault:"false"`
	DownsizeFactor  int  `env:"DOWNSIZE_FACTOR"  envDefault:"15"`

	FailFast     bool `env:"FAIL_FAST"     envDefault:"true"`
	WorkerCount  int  `env:"WORKER_COUNT"  envDefault:"1"`
	ShowProgress bool `env:"SHOW_PROGRESS" envDefault:"false"`

	FFmpegBin   string   `env:"FFMPEG_BIN"   envDefault:"ffmpeg"`
	FFprobeBin  string   `env:"FFPROBE_BIN"  envDefault:"ffprobe"`
	TFCICommand []string `env:"TFCI_COMMAND" envDefault:"python3 tfci.py" envSeparator:" "`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" envDefault:"minioadmin"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" envDefault:"minioadmin"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"    envDefault:"false"`
	MinIOBucket    string `env:"MINIO_BUCKET"     envDefault:"hific"`
	MinIOInputKey  string `env:"MINIO_INPUT_KEY"`

	DatabaseURL string `env:"DATABASE_URL"`

	RabbitMQURL      string `env:"RABBITMQ_URL"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" envDefault:"hific.video"`

	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT"       envDefault:"1025"`
	SMTPFrom       string `env:"SMTP_FROM"       envDefault:"noreply@hific.local"`
	NotificationTo string `env:"NOTIFICATION_TO" envDefault:"admin@hific.local"`

	MetricsPort    int    `env:"METRICS_PORT"    envDefault:"0"`
	JaegerEndpoint string `env:"JAEGER_ENDPOINT"`
	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = DefaultOutputVideo(cfg.InputVideo, cfg.Model)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultOutputVideo places out_<model>_<video name> next to the input video,
// e.g. ./out_hific_lo_parrot4k.mp4.
func DefaultOutputVideo(inputVideo, model string) string {
	prefix := "out_" + strings.ReplaceAll(model, "-", "_") + "_"
	return filepath.Join(filepath.Dir(inputVideo), prefix+filepath.Base(inputVideo))
}

func (c *Config) Validate() error {
	var errs []error
	if err := entity.ValidateModel(c.Model); err != nil {
		errs = append(errs, err)
	}
	if c.OutputFPS <= 0 {
		errs = append(errs, fmt.Errorf("OUTPUT_FPS must be positive, got %d", c.OutputFPS))
	}
	if c.DownsizeFactor <= 0 {
		errs = append(errs, fmt.Errorf("DOWNSIZE_FACTOR must be positive, got %d", c.DownsizeFactor))
	}
	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	if len(c.TFCICommand) == 0 {
		errs = append(errs, errors.New("TFCI_COMMAND must not be empty"))
	}
	return errors.Join(errs...)
}

func (c *Config) Naming() entity.NamingConvention {
	return entity.NewNamingConvention(c.Model)
}
