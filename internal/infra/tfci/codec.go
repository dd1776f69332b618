package tfci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

var ErrEmptyOutput = errors.New("tfci produced an empty file")

// Codec runs the TensorFlow Compression tfci tool, which downloads and runs the
// pretrained HiFiC models.
type Codec struct {
	command []string
	logger  *zap.Logger
}

// NewCodec takes the command prefix used to launch tfci, e.g. ["python3", "tfci.py"].
func NewCodec(command []string, logger *zap.Logger) (*Codec, error) {
	if len(command) == 0 {
		return nil, errors.New("tfci command is empty")
	}
	return &Codec{command: command, logger: logger}, nil
}

func (c *Codec) Compress(ctx context.Context, model, inputPath, outputPath string) error {
	if err := c.run(ctx, "compress", model, inputPath, outputPath); err != nil {
		return fmt.Errorf("compress %s: %w", inputPath, err)
	}
	return requireOutput(outputPath)
}

func (c *Codec) Decompress(ctx context.Context, inputPath, outputPath string) error {
	if err := c.run(ctx, "decompress", inputPath, outputPath); err != nil {
		return fmt.Errorf("decompress %s: %w", inputPath, err)
	}
	return requireOutput(outputPath)
}

func (c *Codec) run(ctx context.Context, args ...string) error {
	argv := append(append([]string{}, c.command[1:]...), args...)
	cmd := exec.CommandContext(ctx, c.command[0], argv...)
	c.logger.Debug("running tfci", zap.Strings("args", argv))

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tfci error: %w, output: %s", err, string(output))
	}
	return nil
}

func requireOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tfci produced no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyOutput, path)
	}
	return nil
}
