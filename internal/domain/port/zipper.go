package port

import "context"

type ZipEntry struct {
	SourcePath string
	Name       string
}

type Zipper interface {
	CreateZip(ctx context.Context, entries []ZipEntry, outputPath string) error
}
