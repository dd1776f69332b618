package port

import "context"

// Codec is the learned image compression model.
type Codec interface {
	Compress(ctx context.Context, model, inputPath, outputPath string) error
	Decompress(ctx context.Context, inputPath, outputPath string) error
}
