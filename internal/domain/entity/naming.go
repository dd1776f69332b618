package entity

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrUnsupportedModel = errors.New("unsupported model")

// Models lists the HiFiC presets, from smallest to largest files.
var Models = []string{"hific-lo", "hific-mi", "hific-hi"}

func ValidateModel(model string) error {
	for _, m := range Models {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (want one of %s)", ErrUnsupportedModel, model, strings.Join(Models, ", "))
}

// NamingConvention is the single source of the file names shared by frame
// extraction, compression and video reassembly.
type NamingConvention struct {
	FramePrefix string
	Model       string
	ArtifactExt string
	ImageExt    string
}

func NewNamingConvention(model string) NamingConvention {
	return NamingConvention{
		FramePrefix: "frame",
		Model:       model,
		ArtifactExt: ".tfci",
		ImageExt:    ".png",
	}
}

func (n NamingConvention) FrameFileName(index int) string {
	return fmt.Sprintf("%s%d%s", n.FramePrefix, index, n.ImageExt)
}

// ExtractPattern is the printf-style pattern of extracted frames, e.g. frame%d.png.
func (n NamingConvention) ExtractPattern() string {
	return n.FramePrefix + "%d" + n.ImageExt
}

func (n NamingConvention) CompressedName(stem string) string {
	return fmt.Sprintf("%s_%s%s", stem, n.Model, n.ArtifactExt)
}

func (n NamingConvention) OutputName(stem string) string {
	return fmt.Sprintf("%s_%s%s", stem, n.Model, n.ImageExt)
}

// OutputPattern is the printf-style pattern of decompressed frames, e.g. frame%d_hific-lo.png.
func (n NamingConvention) OutputPattern() string {
	return n.OutputName(n.FramePrefix + "%d")
}

// OutputIndex extracts the frame index from a decompressed frame path, the
// inverse of OutputName(FrameFileName stem).
func (n NamingConvention) OutputIndex(path string) (int, bool) {
	suffix := "_" + n.Model + n.ImageExt
	base := filepath.Base(path)
	if !strings.HasPrefix(base, n.FramePrefix) || !strings.HasSuffix(base, suffix) {
		return 0, false
	}
	idx, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, n.FramePrefix), suffix))
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// WithBPP inserts -{bpp:.3f}bpp before the extension of the base name of path.
func (n NamingConvention) WithBPP(path string, bpp float64) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%.3fbpp%s", strings.TrimSuffix(base, ext), bpp, ext)
}

// Stem strips the directory and extension from a file name.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
