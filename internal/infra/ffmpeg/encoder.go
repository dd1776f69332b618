package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/kavofa/hific-video/internal/domain/port"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

var ErrEmptyOutput = errors.New("encoded video is empty")

type Encoder struct {
	ffmpegBin string
	logger    *zap.Logger
}

func NewEncoder(ffmpegBin string, logger *zap.Logger) *Encoder {
	return &Encoder{ffmpegBin: ffmpegBin, logger: logger}
}

// EncodeSequence stitches the numbered images matching req.Pattern inside
// req.InputDir into an H.264 video at req.FrameRate.
func (e *Encoder) EncodeSequence(ctx context.Context, req port.VideoEncodeRequest) (string, error) {
	if req.FrameRate <= 0 {
		return "", fmt.Errorf("frame rate must be positive, got %d", req.FrameRate)
	}
	outPath, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.ffmpegBin, encodeArgs(req, outPath)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg error: %w, output: %s", err, string(output))
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("stat encoded video: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyOutput, outPath)
	}

	e.logger.Info("video reassembled",
		zap.String("path", outPath),
		zap.Int64("bytes", info.Size()),
		zap.Int("fps", req.FrameRate),
	)
	return outPath, nil
}

func encodeArgs(req port.VideoEncodeRequest, outPath string) []string {
	return ffmpeggo.Input(filepath.Join(req.InputDir, req.Pattern), ffmpeggo.KwArgs{
		"framerate": req.FrameRate,
	}).
		Output(outPath, ffmpeggo.KwArgs{
			"c:v":     "libx264",
			"pix_fmt": "yuv420p",
			"r":       req.FrameRate,
		}).
		OverWriteOutput().
		GetArgs()
}
