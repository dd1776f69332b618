package port

import "context"

type VideoEncodeRequest struct {
	InputDir   string
	Pattern    string
	FrameRate  int
	OutputPath string
}

type VideoEncoder interface {
	// EncodeSequence returns the absolute path of the written video.
	EncodeSequence(ctx context.Context, req VideoEncodeRequest) (string, error)
}
