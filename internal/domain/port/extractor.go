package port

import "context"

type VideoInfo struct {
	FPS        float64
	FrameCount int
	Width      int
	Height     int
	Duration   float64
}

type FrameExtractionResult struct {
	Info       VideoInfo
	FramePaths []string
	FrameCount int
}

type FrameExtractor interface {
	Probe(ctx context.Context, videoPath string) (*VideoInfo, error)
	ExtractFrames(ctx context.Context, videoPath string, outputDir string) (*FrameExtractionResult, error)
}
