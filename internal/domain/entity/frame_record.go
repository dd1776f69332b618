package entity

import (
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("image dimensions must be positive")

type FrameState string

const (
	FrameStateSkippedDir    FrameState = "SKIPPED_DIR"
	FrameStateSkippedExt    FrameState = "SKIPPED_EXT"
	FrameStateSkippedAlpha  FrameState = "SKIPPED_ALPHA"
	FrameStateSkippedExists FrameState = "SKIPPED_EXISTS"
	FrameStateProcessed     FrameState = "PROCESSED"
	FrameStateFailed        FrameState = "FAILED"
)

// FrameRecord holds the compression statistics of one frame. Optional fields are
// nil when the frame was not compressed during this run.
type FrameRecord struct {
	OutputPath        string   `json:"output_path"`
	NumBytes          int64    `json:"num_bytes"`
	BitsPerPixel      float64  `json:"bits_per_pixel"`
	CompressedPath    *string  `json:"compressed_path,omitempty"`
	CompressionTime   *float64 `json:"compression_time_seconds,omitempty"`
	DecompressionTime *float64 `json:"decompression_time_seconds,omitempty"`
}

func NewProcessedRecord(outputPath, compressedPath string, numBytes int64, bpp, compressSecs, decompressSecs float64) FrameRecord {
	return FrameRecord{
		OutputPath:        outputPath,
		NumBytes:          numBytes,
		BitsPerPixel:      bpp,
		CompressedPath:    &compressedPath,
		CompressionTime:   &compressSecs,
		DecompressionTime: &decompressSecs,
	}
}

// NewExistingRecord describes a frame whose outputs were produced by an earlier run.
func NewExistingRecord(outputPath string, numBytes int64, bpp float64) FrameRecord {
	return FrameRecord{
		OutputPath:   outputPath,
		NumBytes:     numBytes,
		BitsPerPixel: bpp,
	}
}

func (r FrameRecord) HasTimings() bool {
	return r.CompressionTime != nil && r.DecompressionTime != nil
}

// FrameOutcome is the terminal state of one candidate file in the frames directory.
type FrameOutcome struct {
	File   string
	State  FrameState
	Record *FrameRecord
	Err    error
}

// BitsPerPixel returns numBytes*8 / (width*height) for the original image size.
func BitsPerPixel(numBytes int64, width, height int) (float64, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return float64(numBytes) * 8 / (float64(width) * float64(height)), nil
}

// Records returns the records of all outcomes that produced one, in order.
func Records(outcomes []FrameOutcome) []FrameRecord {
	records := make([]FrameRecord, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Record != nil {
			records = append(records, *o.Record)
		}
	}
	return records
}
