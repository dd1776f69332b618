package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/domain/port"
	"github.com/kavofa/hific-video/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var supportedExt = map[string]bool{".png": true, ".jpg": true}

// ErrEmptyArtifact is returned when the codec leaves a zero-byte compressed file.
var ErrEmptyArtifact = errors.New("compressed artifact is empty")

type CompressionConfig struct {
	FramesDir string
	OutputDir string
	Naming    entity.NamingConvention
	// FailFast aborts on the first compress or decompress error. When false the
	// frame is recorded as FAILED and the run continues.
	FailFast bool
	Workers  int
}

// CompressionDriver runs every frame of a directory through the codec and
// collects its statistics.
type CompressionDriver struct {
	codec     port.Codec
	inspector port.ImageInspector
	progress  port.ProgressReporter
	logger    *zap.Logger
	cfg       CompressionConfig
}

func NewCompressionDriver(
	codec port.Codec,
	inspector port.ImageInspector,
	progress port.ProgressReporter,
	logger *zap.Logger,
	cfg CompressionConfig,
) *CompressionDriver {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if progress == nil {
		progress = nopProgress{}
	}
	return &CompressionDriver{
		codec:     codec,
		inspector: inspector,
		progress:  progress,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run returns one outcome per directory entry, in directory-listing order,
// regardless of the number of workers.
func (d *CompressionDriver) Run(ctx context.Context) ([]entity.FrameOutcome, error) {
	entries, err := os.ReadDir(d.cfg.FramesDir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	outcomes := make([]entity.FrameOutcome, len(entries))
	d.progress.Start(len(entries), "Compressing frames with "+d.cfg.Naming.Model)
	defer d.progress.Finish()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)

	for i, entry := range entries {
		if gctx.Err() != nil {
			break
		}
		i, entry := i, entry
		g.Go(func() error {
			// frames queued behind a fail-fast abort never start
			if gctx.Err() != nil {
				return nil
			}
			outcome, err := d.processEntry(gctx, entry)
			outcomes[i] = outcome
			d.observe(outcome)
			d.progress.Advance()
			if err != nil && d.cfg.FailFast {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	outcomes = started(outcomes)
	if err != nil {
		return outcomes, err
	}
	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func (d *CompressionDriver) processEntry(ctx context.Context, entry os.DirEntry) (entity.FrameOutcome, error) {
	name := entry.Name()
	outcome := entity.FrameOutcome{File: name}
	log := d.logger.With(zap.String("file", name))

	if entry.IsDir() {
		outcome.State = entity.FrameStateSkippedDir
		return outcome, nil
	}
	if !supportedExt[strings.ToLower(filepath.Ext(name))] {
		log.Info("skipping unsupported file format")
		outcome.State = entity.FrameStateSkippedExt
		return outcome, nil
	}

	fail := func(err error) (entity.FrameOutcome, error) {
		err = fmt.Errorf("frame %s: %w", name, err)
		log.Error("frame failed", zap.Error(err))
		outcome.State = entity.FrameStateFailed
		outcome.Err = err
		return outcome, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	fullPath := filepath.Join(d.cfg.FramesDir, name)
	info, err := d.inspector.Inspect(fullPath)
	if err != nil {
		return fail(err)
	}
	if info.HasAlpha {
		log.Info("skipping frame with alpha channel")
		outcome.State = entity.FrameStateSkippedAlpha
		return outcome, nil
	}

	stem := entity.Stem(name)
	compressedPath := filepath.Join(d.cfg.OutputDir, d.cfg.Naming.CompressedName(stem))
	outputPath := filepath.Join(d.cfg.OutputDir, d.cfg.Naming.OutputName(stem))

	if numBytes, ok := existingOutputs(outputPath, compressedPath); ok {
		bpp, err := entity.BitsPerPixel(numBytes, info.Width, info.Height)
		if err != nil {
			return fail(err)
		}
		log.Info("outputs exist already", zap.String("output", outputPath))
		rec := entity.NewExistingRecord(outputPath, numBytes, bpp)
		outcome.State = entity.FrameStateSkippedExists
		outcome.Record = &rec
		return outcome, nil
	}

	rec, err := d.compressFrame(ctx, fullPath, compressedPath, outputPath, info, log)
	if err != nil {
		return fail(err)
	}
	outcome.State = entity.FrameStateProcessed
	outcome.Record = rec
	return outcome, nil
}

func (d *CompressionDriver) compressFrame(
	ctx context.Context,
	inputPath, compressedPath, outputPath string,
	info *port.ImageInfo,
	log *zap.Logger,
) (*entity.FrameRecord, error) {
	ctx, span := otel.Tracer("usecase").Start(ctx, "compress_frame")
	defer span.End()
	span.SetAttributes(
		attribute.String("frame.path", inputPath),
		attribute.String("frame.model", d.cfg.Naming.Model),
	)

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	start := time.Now()
	if err := d.codec.Compress(ctx, d.cfg.Naming.Model, inputPath, compressedPath); err != nil {
		return nil, err
	}
	stat, err := os.Stat(compressedPath)
	if err != nil {
		return nil, fmt.Errorf("stat compressed artifact: %w", err)
	}
	compressSecs := time.Since(start).Seconds()
	numBytes := stat.Size()
	if numBytes == 0 {
		return nil, ErrEmptyArtifact
	}

	bpp, err := entity.BitsPerPixel(numBytes, info.Width, info.Height)
	if err != nil {
		return nil, err
	}
	log.Info("frame compressed",
		zap.Int64("num_bytes", numBytes),
		zap.Float64("bpp", bpp),
		zap.Float64("seconds", compressSecs),
	)

	start = time.Now()
	if err := d.codec.Decompress(ctx, compressedPath, outputPath); err != nil {
		return nil, err
	}
	decompressSecs := time.Since(start).Seconds()
	log.Info("frame decompressed", zap.Float64("seconds", decompressSecs))

	metrics.CodecDuration.WithLabelValues("compress").Observe(compressSecs)
	metrics.CodecDuration.WithLabelValues("decompress").Observe(decompressSecs)
	metrics.CompressedBytesTotal.Add(float64(numBytes))
	metrics.BitsPerPixel.Observe(bpp)
	span.SetAttributes(attribute.Int64("frame.num_bytes", numBytes), attribute.Float64("frame.bpp", bpp))

	rec := entity.NewProcessedRecord(outputPath, compressedPath, numBytes, bpp, compressSecs, decompressSecs)
	return &rec, nil
}

func (d *CompressionDriver) observe(o entity.FrameOutcome) {
	if o.State != "" {
		metrics.FramesTotal.WithLabelValues(string(o.State)).Inc()
	}
}

type nopProgress struct{}

func (nopProgress) Start(int, string) {}
func (nopProgress) Advance()          {}
func (nopProgress) Finish()           {}

// existingOutputs reports whether an earlier run left both the reconstructed
// image and a non-empty compressed artifact, returning the artifact size.
func existingOutputs(outputPath, compressedPath string) (int64, bool) {
	out, err := os.Stat(outputPath)
	if err != nil || !out.Mode().IsRegular() {
		return 0, false
	}
	artifact, err := os.Stat(compressedPath)
	if err != nil || !artifact.Mode().IsRegular() || artifact.Size() == 0 {
		return 0, false
	}
	return artifact.Size(), true
}

// started drops the slots of entries that were never processed, keeping order.
func started(outcomes []entity.FrameOutcome) []entity.FrameOutcome {
	done := outcomes[:0]
	for _, o := range outcomes {
		if o.State != "" {
			done = append(done, o)
		}
	}
	return done
}

// Failures returns the errors of all FAILED outcomes joined together.
func Failures(outcomes []entity.FrameOutcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.State == entity.FrameStateFailed && o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
