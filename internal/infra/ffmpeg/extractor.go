package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/domain/port"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

type Extractor struct {
	ffmpegBin  string
	ffprobeBin string
	naming     entity.NamingConvention
	logger     *zap.Logger
}

func NewExtractor(ffmpegBin, ffprobeBin string, naming entity.NamingConvention, logger *zap.Logger) *Extractor {
	return &Extractor{ffmpegBin: ffmpegBin, ffprobeBin: ffprobeBin, naming: naming, logger: logger}
}

func (e *Extractor) Probe(ctx context.Context, videoPath string) (*port.VideoInfo, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("input video: %w", err)
	}
	return probeVideo(ctx, e.ffprobeBin, videoPath)
}

// ExtractFrames decodes every frame of videoPath until the stream is exhausted
// and writes frame<index>.png files, starting at index 0, into outputDir.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*port.FrameExtractionResult, error) {
	info, err := e.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	e.logger.Info("probed input video",
		zap.Float64("fps", info.FPS),
		zap.Int("frames", info.FrameCount),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
	)

	// The probed count is only an estimate; ffmpeg always decodes until the
	// stream ends.
	args := e.extractArgs(videoPath, outputDir)
	cmd := exec.CommandContext(ctx, e.ffmpegBin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if info.FrameCount != 0 {
			return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
		}
		e.logger.Warn("ffmpeg decoded nothing from a video probed as empty",
			zap.Error(err),
			zap.String("output", string(output)),
		)
	}

	frames, err := e.listFrames(outputDir)
	if err != nil {
		return nil, err
	}

	if len(frames) != info.FrameCount {
		e.logger.Warn("extracted frame count differs from probed count",
			zap.Int("probed", info.FrameCount),
			zap.Int("extracted", len(frames)),
		)
	}

	e.logger.Info("frames extracted", zap.Int("count", len(frames)))

	return &port.FrameExtractionResult{
		Info:       *info,
		FramePaths: frames,
		FrameCount: len(frames),
	}, nil
}

func (e *Extractor) extractArgs(videoPath, outputDir string) []string {
	return ffmpeggo.Input(videoPath).
		Output(filepath.Join(outputDir, e.naming.ExtractPattern()), ffmpeggo.KwArgs{
			"start_number": 0,
			"vsync":        "passthrough",
		}).
		OverWriteOutput().
		GetArgs()
}

// listFrames returns the extracted frames of outputDir sorted by frame index.
func (e *Extractor) listFrames(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	type indexed struct {
		path  string
		index int
	}
	var frames []indexed
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		idx, ok := e.frameIndex(entry.Name())
		if !ok {
			continue
		}
		frames = append(frames, indexed{path: filepath.Join(outputDir, entry.Name()), index: idx})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].index < frames[j].index })

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return paths, nil
}

func (e *Extractor) frameIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, e.naming.FramePrefix) || !strings.HasSuffix(name, e.naming.ImageExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, e.naming.FramePrefix), e.naming.ImageExt)
	idx, err := strconv.Atoi(digits)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
