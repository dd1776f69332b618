package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kavofa/hific-video/internal/domain/port"
	"go.uber.org/zap"
)

// Downsizer shrinks every extracted frame in place by an integer factor.
type Downsizer struct {
	resizer port.ImageResizer
	logger  *zap.Logger
}

func NewDownsizer(resizer port.ImageResizer, logger *zap.Logger) *Downsizer {
	return &Downsizer{resizer: resizer, logger: logger}
}

// Run resizes all images in dir and returns how many were rewritten. Files
// that are not images are skipped with a warning.
func (d *Downsizer) Run(ctx context.Context, dir string, factor int) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list frames: %w", err)
	}

	resized := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return resized, err
		}
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		w, h, err := d.resizer.Downsize(path, factor)
		if errors.Is(err, port.ErrNotImage) {
			d.logger.Warn("skipping non-image file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if err != nil {
			return resized, fmt.Errorf("downsize %s: %w", entry.Name(), err)
		}

		d.logger.Debug("frame downsized",
			zap.String("file", entry.Name()),
			zap.Int("width", w),
			zap.Int("height", h),
		)
		resized++
	}
	return resized, nil
}
