package usecase

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/domain/port"
	"go.uber.org/zap"
)

type ArchivePaths struct {
	CompressedZip   string
	DecompressedZip string
	StatsPath       string
}

type ArchiveResult struct {
	CompressedEntries   int
	DecompressedEntries int
}

// Archiver packages compressed artifacts and reconstructed frames and persists
// the frame statistics.
type Archiver struct {
	zipper port.Zipper
	stats  port.StatisticsStore
	naming entity.NamingConvention
	logger *zap.Logger
}

func NewArchiver(zipper port.Zipper, stats port.StatisticsStore, naming entity.NamingConvention, logger *zap.Logger) *Archiver {
	return &Archiver{zipper: zipper, stats: stats, naming: naming, logger: logger}
}

func (a *Archiver) Archive(ctx context.Context, records []entity.FrameRecord, paths ArchivePaths) (*ArchiveResult, error) {
	compressed := CompressedEntries(records)
	if err := a.zipper.CreateZip(ctx, compressed, paths.CompressedZip); err != nil {
		return nil, fmt.Errorf("compressed archive: %w", err)
	}

	decompressed := DecompressedEntries(records, a.naming)
	if err := a.zipper.CreateZip(ctx, decompressed, paths.DecompressedZip); err != nil {
		return nil, fmt.Errorf("decompressed archive: %w", err)
	}

	if err := a.stats.Save(ctx, paths.StatsPath, records); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	a.logger.Info("archives written",
		zap.String("compressed_zip", paths.CompressedZip),
		zap.Int("compressed_entries", len(compressed)),
		zap.String("decompressed_zip", paths.DecompressedZip),
		zap.Int("decompressed_entries", len(decompressed)),
		zap.String("statistics", paths.StatsPath),
	)

	return &ArchiveResult{
		CompressedEntries:   len(compressed),
		DecompressedEntries: len(decompressed),
	}, nil
}

// CompressedEntries stores every artifact under its path as given.
func CompressedEntries(records []entity.FrameRecord) []port.ZipEntry {
	var entries []port.ZipEntry
	for _, rec := range records {
		if rec.CompressedPath == nil {
			continue
		}
		entries = append(entries, port.ZipEntry{
			SourcePath: *rec.CompressedPath,
			Name:       archiveName(*rec.CompressedPath),
		})
	}
	return entries
}

// DecompressedEntries stores every reconstruction under its base name with the
// bits per pixel inserted before the extension.
func DecompressedEntries(records []entity.FrameRecord, naming entity.NamingConvention) []port.ZipEntry {
	entries := make([]port.ZipEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, port.ZipEntry{
			SourcePath: rec.OutputPath,
			Name:       naming.WithBPP(rec.OutputPath, rec.BitsPerPixel),
		})
	}
	return entries
}

// archiveName turns a file path into a relative, slash-separated entry name.
func archiveName(p string) string {
	name := path.Clean(filepath.ToSlash(p))
	if vol := filepath.VolumeName(p); vol != "" {
		name = strings.TrimPrefix(name, filepath.ToSlash(vol))
	}
	name = strings.TrimLeft(name, "/")
	for strings.HasPrefix(name, "../") {
		name = strings.TrimPrefix(name, "../")
	}
	return name
}
