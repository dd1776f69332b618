package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"github.com/kavofa/hific-video/internal/domain/port"
)

// Inspector reads image headers only; pixel data is never decoded.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (i *Inspector) Inspect(path string) (*port.ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("decode image header %s: %w", path, classify(err))
	}
	return &port.ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		HasAlpha: hasAlphaChannel(cfg.ColorModel),
	}, nil
}

// hasAlphaChannel reports non-premultiplied color models, which the png
// decoder uses for images that carry an alpha channel.
func hasAlphaChannel(m color.Model) bool {
	switch m {
	case color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}

func classify(err error) error {
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %v", port.ErrNotImage, err)
	}
	return err
}

type Resizer struct{}

func NewResizer() *Resizer {
	return &Resizer{}
}

// Downsize divides both dimensions by factor (integer division, clamped to 1)
// and overwrites the file in its original format.
func (r *Resizer) Downsize(path string, factor int) (int, int, error) {
	if factor <= 0 {
		return 0, 0, fmt.Errorf("downsize factor must be positive, got %d", factor)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image %s: %w", path, classify(err))
	}
	b := img.Bounds()
	w, h := max(b.Dx()/factor, 1), max(b.Dy()/factor, 1)

	resized := imaging.Resize(img, w, h, imaging.Lanczos)
	if err := imaging.Save(resized, path); err != nil {
		return 0, 0, fmt.Errorf("save resized image %s: %w", path, err)
	}
	return w, h, nil
}
