package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/domain/port"
	"github.com/kavofa/hific-video/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type PipelineConfig struct {
	InputVideo      string
	InputKey        string
	FramesDir       string
	OutputDir       string
	CompressedZip   string
	DecompressedZip string
	StatsPath       string
	OutputVideo     string
	OutputFPS       int
	DownsizeEnabled bool
	DownsizeFactor  int
	FailFast        bool
	WorkerCount     int
	Naming          entity.NamingConvention
}

// PipelineDeps wires the collaborators. Storage, Repo, Publisher and Notifier
// are optional and may be nil.
type PipelineDeps struct {
	Extractor port.FrameExtractor
	Encoder   port.VideoEncoder
	Codec     port.Codec
	Inspector port.ImageInspector
	Resizer   port.ImageResizer
	Zipper    port.Zipper
	Stats     port.StatisticsStore
	Progress  port.ProgressReporter
	Storage   port.ArtifactStorage
	Repo      port.RunRepository
	Publisher port.StatusPublisher
	Notifier  port.FailureNotifier
}

type Result struct {
	Run         *entity.Run
	Video       port.VideoInfo
	Outcomes    []entity.FrameOutcome
	Records     []entity.FrameRecord
	Archive     ArchiveResult
	OutputVideo string
	Stages      []StageTiming
	Elapsed     time.Duration
}

type StageTiming struct {
	Name    string
	Elapsed time.Duration
}

type Pipeline struct {
	deps   PipelineDeps
	cfg    PipelineConfig
	logger *zap.Logger
}

func NewPipeline(deps PipelineDeps, logger *zap.Logger, cfg PipelineConfig) *Pipeline {
	return &Pipeline{deps: deps, cfg: cfg, logger: logger}
}

// Execute runs extraction, optional downsizing, compression, archiving and
// reassembly in sequence. Any error stops the run and leaves partial outputs
// on disk.
func (p *Pipeline) Execute(ctx context.Context) (*Result, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "Pipeline.Execute")
	defer span.End()

	totalTimer := time.Now()
	run := entity.NewRun(p.cfg.InputVideo, p.cfg.Naming.Model)
	res := &Result{Run: run}

	span.SetAttributes(
		attribute.String("run.id", run.ID.String()),
		attribute.String("run.input_video", run.InputVideo),
		attribute.String("run.model", run.Model),
	)
	log := p.logger.With(zap.String("run_id", run.ID.String()), zap.String("model", run.Model))

	if p.deps.Repo != nil {
		if err := p.deps.Repo.Create(ctx, run); err != nil {
			err = fmt.Errorf("create run record: %w", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.handleFailure(ctx, res, err, log)
			return res, err
		}
	}
	run.MarkRunning()
	p.updateRun(ctx, run, log)

	if err := p.runStages(ctx, res, log); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.handleFailure(ctx, res, err, log)
		return res, err
	}

	run.MarkCompleted()
	if p.deps.Repo != nil {
		if err := p.deps.Repo.SaveRecords(ctx, run.ID, res.Records); err != nil {
			log.Error("failed to save frame records", zap.Error(err))
		}
	}
	p.updateRun(ctx, run, log)
	p.publishStatus(ctx, res, log)

	res.Elapsed = time.Since(totalTimer)
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.StageDuration.WithLabelValues("total").Observe(res.Elapsed.Seconds())

	log.Info("run completed",
		zap.Int("frames", run.FrameCount),
		zap.Int("processed", run.Processed),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) runStages(ctx context.Context, res *Result, log *zap.Logger) error {
	run := res.Run

	if p.cfg.InputKey != "" {
		if p.deps.Storage == nil {
			return fmt.Errorf("download_video: input key %q set but no object storage configured", p.cfg.InputKey)
		}
		err := p.stage(ctx, res, "download_video", log, func(ctx context.Context) error {
			if err := os.MkdirAll(filepath.Dir(p.cfg.InputVideo), 0755); err != nil {
				return err
			}
			return p.deps.Storage.DownloadVideo(ctx, p.cfg.InputKey, p.cfg.InputVideo)
		})
		if err != nil {
			return err
		}
	}

	for _, dir := range []string{p.cfg.FramesDir, p.cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	err := p.stage(ctx, res, "extract_frames", log, func(ctx context.Context) error {
		extracted, err := p.deps.Extractor.ExtractFrames(ctx, p.cfg.InputVideo, p.cfg.FramesDir)
		if err != nil {
			return err
		}
		res.Video = extracted.Info
		run.RecordExtraction(extracted.FrameCount, extracted.Info.FPS)
		metrics.FramesExtractedTotal.Add(float64(extracted.FrameCount))
		log.Info("frames extracted",
			zap.Float64("fps", extracted.Info.FPS),
			zap.Int("reported_frames", extracted.Info.FrameCount),
			zap.Int("extracted_frames", extracted.FrameCount),
		)
		return nil
	})
	if err != nil {
		return err
	}
	p.updateRun(ctx, run, log)

	if p.cfg.DownsizeEnabled {
		err := p.stage(ctx, res, "downsize_frames", log, func(ctx context.Context) error {
			n, err := NewDownsizer(p.deps.Resizer, log).Run(ctx, p.cfg.FramesDir, p.cfg.DownsizeFactor)
			log.Info("frames downsized", zap.Int("count", n), zap.Int("factor", p.cfg.DownsizeFactor))
			return err
		})
		if err != nil {
			return err
		}
	}

	err = p.stage(ctx, res, "compress_frames", log, func(ctx context.Context) error {
		driver := NewCompressionDriver(p.deps.Codec, p.deps.Inspector, p.deps.Progress, log, CompressionConfig{
			FramesDir: p.cfg.FramesDir,
			OutputDir: p.cfg.OutputDir,
			Naming:    p.cfg.Naming,
			FailFast:  p.cfg.FailFast,
			Workers:   p.cfg.WorkerCount,
		})
		outcomes, err := driver.Run(ctx)
		res.Outcomes = outcomes
		res.Records = entity.Records(outcomes)
		run.RecordOutcomes(outcomes)
		if err != nil {
			return err
		}
		if failures := Failures(outcomes); failures != nil {
			log.Warn("some frames failed and were left out", zap.Int("failed", run.Failed), zap.Error(failures))
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(ctx, res, "archive", log, func(ctx context.Context) error {
		archived, err := NewArchiver(p.deps.Zipper, p.deps.Stats, p.cfg.Naming, log).Archive(ctx, res.Records, ArchivePaths{
			CompressedZip:   p.cfg.CompressedZip,
			DecompressedZip: p.cfg.DecompressedZip,
			StatsPath:       p.cfg.StatsPath,
		})
		if err != nil {
			return err
		}
		res.Archive = *archived
		return nil
	})
	if err != nil {
		return err
	}

	if len(res.Records) == 0 {
		log.Warn("no decompressed frames, skipping video reassembly")
	} else {
		if gaps := SequenceGaps(res.Records, p.cfg.Naming); len(gaps) > 0 {
			log.Warn("decompressed frames are not contiguous, the video will stop at the first gap",
				zap.Ints("missing_frames", gaps),
			)
		}
		err = p.stage(ctx, res, "reassemble_video", log, func(ctx context.Context) error {
			out, err := p.deps.Encoder.EncodeSequence(ctx, port.VideoEncodeRequest{
				InputDir:   p.cfg.OutputDir,
				Pattern:    p.cfg.Naming.OutputPattern(),
				FrameRate:  p.cfg.OutputFPS,
				OutputPath: p.cfg.OutputVideo,
			})
			if err != nil {
				return err
			}
			res.OutputVideo = out
			return nil
		})
		if err != nil {
			return err
		}
	}

	if p.deps.Storage != nil {
		return p.stage(ctx, res, "upload_artifacts", log, func(ctx context.Context) error {
			return p.uploadArtifacts(ctx, res)
		})
	}
	return nil
}

// stage runs fn inside its own span, timing it and wrapping its error with the stage name.
func (p *Pipeline) stage(ctx context.Context, res *Result, name string, log *zap.Logger, fn func(ctx context.Context) error) error {
	ctx, span := otel.Tracer("usecase").Start(ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	res.Stages = append(res.Stages, StageTiming{Name: name, Elapsed: elapsed})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}

	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	log.Info("stage completed", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return nil
}

func (p *Pipeline) uploadArtifacts(ctx context.Context, res *Result) error {
	files := []string{p.cfg.CompressedZip, p.cfg.DecompressedZip, p.cfg.StatsPath}
	if res.OutputVideo != "" {
		files = append(files, res.OutputVideo)
	}
	for _, f := range files {
		key := path.Join(res.Run.ID.String(), filepath.Base(f))
		if err := p.deps.Storage.UploadArtifact(ctx, key, f); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) handleFailure(ctx context.Context, res *Result, runErr error, log *zap.Logger) {
	run := res.Run
	run.MarkFailed(runErr.Error())
	p.updateRun(ctx, run, log)
	p.publishStatus(ctx, res, log)
	metrics.RunsTotal.WithLabelValues("failed").Inc()

	if p.deps.Notifier != nil {
		_ = p.deps.Notifier.NotifyFailure(ctx, run.ID.String(), run.InputVideo, runErr.Error())
	}
}

func (p *Pipeline) updateRun(ctx context.Context, run *entity.Run, log *zap.Logger) {
	if p.deps.Repo == nil {
		return
	}
	if err := p.deps.Repo.Update(ctx, run); err != nil {
		log.Error("failed to update run record", zap.String("status", string(run.Status)), zap.Error(err))
	}
}

func (p *Pipeline) publishStatus(ctx context.Context, res *Result, log *zap.Logger) {
	if p.deps.Publisher == nil {
		return
	}
	msg := entity.NewRunStatusMessage(res.Run)
	if res.Run.Status == entity.RunStatusCompleted {
		msg.CompressedZip = p.cfg.CompressedZip
		msg.DecompressedZip = p.cfg.DecompressedZip
		msg.OutputVideo = res.OutputVideo
	}
	data, _ := json.Marshal(msg)
	if err := p.deps.Publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

// SequenceGaps returns the frame indices between 0 and the highest
// reconstructed index that have no record. ffmpeg's image sequence input stops
// at the first of them.
func SequenceGaps(records []entity.FrameRecord, naming entity.NamingConvention) []int {
	present := make(map[int]bool, len(records))
	last := -1
	for _, rec := range records {
		idx, ok := naming.OutputIndex(rec.OutputPath)
		if !ok {
			continue
		}
		present[idx] = true
		last = max(last, idx)
	}
	var gaps []int
	for i := 0; i <= last; i++ {
		if !present[i] {
			gaps = append(gaps, i)
		}
	}
	return gaps
}
