package usecase

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/infra/ffmpeg"
	"github.com/kavofa/hific-video/internal/infra/imagefile"
	"github.com/kavofa/hific-video/internal/infra/statsfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type pipelineFixture struct {
	cfg       PipelineConfig
	deps      PipelineDeps
	codec     *fakeCodec
	extractor *fakeExtractor
	encoder   *fakeEncoder
	repo      *fakeRepo
	publisher *fakePublisher
	notifier  *fakeNotifier
}

func newPipelineFixture(t *testing.T, frames int) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()
	naming := entity.NewNamingConvention("hific-lo")

	f := &pipelineFixture{
		codec:     &fakeCodec{},
		extractor: &fakeExtractor{t: t, naming: naming, frames: frames, fps: 30},
		encoder:   &fakeEncoder{},
		repo:      newFakeRepo(),
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
	}
	f.cfg = PipelineConfig{
		InputVideo:      filepath.Join(dir, "parrot.mp4"),
		FramesDir:       filepath.Join(dir, "in_video"),
		OutputDir:       filepath.Join(dir, "out_video"),
		CompressedZip:   filepath.Join(dir, "compressed_video.hific.zip"),
		DecompressedZip: filepath.Join(dir, "decompressed_video.hific.zip"),
		StatsPath:       filepath.Join(dir, "compression_statistics.json"),
		OutputVideo:     filepath.Join(dir, "out_hific_lo_parrot.mp4"),
		OutputFPS:       25,
		DownsizeFactor:  15,
		FailFast:        true,
		WorkerCount:     1,
		Naming:          naming,
	}
	f.deps = PipelineDeps{
		Extractor: f.extractor,
		Encoder:   f.encoder,
		Codec:     f.codec,
		Inspector: imagefile.NewInspector(),
		Resizer:   imagefile.NewResizer(),
		Zipper:    ffmpeg.NewZipCreator(),
		Stats:     statsfile.NewStore(),
		Repo:      f.repo,
		Publisher: f.publisher,
		Notifier:  f.notifier,
	}
	require.NoError(t, os.WriteFile(f.cfg.InputVideo, []byte("video"), 0644))
	return f
}

func (f *pipelineFixture) run(t *testing.T) (*Result, error) {
	t.Helper()
	return f.runWithLogger(t, zap.NewNop())
}

func (f *pipelineFixture) runWithLogger(t *testing.T, logger *zap.Logger) (*Result, error) {
	t.Helper()
	return NewPipeline(f.deps, logger, f.cfg).Execute(context.Background())
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPipelineTwoFrames(t *testing.T) {
	f := newPipelineFixture(t, 2)

	res, err := f.run(t)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Run.FrameCount)
	assert.Equal(t, 30.0, res.Run.SourceFPS)
	assert.Equal(t, entity.RunStatusCompleted, res.Run.Status)

	compressed := zipNames(t, f.cfg.CompressedZip)
	assert.Len(t, compressed, 2)

	decompressed := zipNames(t, f.cfg.DecompressedZip)
	require.Len(t, decompressed, 2)
	for i, name := range decompressed {
		assert.Contains(t, name, fmt.Sprintf("-%.3fbpp", res.Records[i].BitsPerPixel))
		assert.True(t, strings.HasSuffix(name, "bpp.png"))
	}

	loaded, err := statsfile.NewStore().Load(context.Background(), f.cfg.StatsPath)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, res.Records[0].OutputPath, loaded[0].OutputPath)
	assert.Equal(t, res.Records[1].OutputPath, loaded[1].OutputPath)

	info, err := os.Stat(res.OutputVideo)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	require.Len(t, f.encoder.requests, 1)
	assert.Equal(t, "frame%d_hific-lo.png", f.encoder.requests[0].Pattern)
	assert.Equal(t, 25, f.encoder.requests[0].FrameRate)

	assert.Len(t, f.repo.records[res.Run.ID], 2)
	require.NotEmpty(t, f.publisher.messages)
	var msg entity.RunStatusMessage
	require.NoError(t, json.Unmarshal(f.publisher.messages[len(f.publisher.messages)-1], &msg))
	assert.Equal(t, entity.RunStatusCompleted, msg.Status)
	assert.Equal(t, 2, msg.Processed)
	assert.Empty(t, f.notifier.errors)
}

func TestPipelineExcludesAlphaFrames(t *testing.T) {
	f := newPipelineFixture(t, 3)
	f.extractor.alpha = map[int]bool{1: true}

	res, err := f.run(t)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		assert.NotContains(t, rec.OutputPath, "frame1_")
	}
	for _, name := range zipNames(t, f.cfg.CompressedZip) {
		assert.NotContains(t, name, "frame1_")
	}
	for _, name := range zipNames(t, f.cfg.DecompressedZip) {
		assert.NotContains(t, name, "frame1_")
	}
	assert.Equal(t, 1, res.Run.Skipped)
}

func TestPipelineRerunReusesOutputs(t *testing.T) {
	f := newPipelineFixture(t, 2)

	_, err := f.run(t)
	require.NoError(t, err)
	compressedBefore, decompressedBefore := f.codec.calls()

	res, err := f.run(t)
	require.NoError(t, err)

	compressedAfter, decompressedAfter := f.codec.calls()
	assert.Equal(t, compressedBefore, compressedAfter)
	assert.Equal(t, decompressedBefore, decompressedAfter)

	require.Len(t, res.Records, 2)
	for _, rec := range res.Records {
		assert.False(t, rec.HasTimings())
		assert.Nil(t, rec.CompressedPath)
		assert.Positive(t, rec.BitsPerPixel)
	}
	assert.Empty(t, zipNames(t, f.cfg.CompressedZip))
	assert.Len(t, zipNames(t, f.cfg.DecompressedZip), 2)
}

func TestPipelineZeroFrames(t *testing.T) {
	f := newPipelineFixture(t, 0)

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.OutputVideo)
	assert.Empty(t, f.encoder.requests)

	data, err := os.ReadFile(f.cfg.StatsPath)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestPipelineDownsizeBeforeCompression(t *testing.T) {
	f := newPipelineFixture(t, 1)
	f.cfg.DownsizeEnabled = true
	f.cfg.DownsizeFactor = 2

	res, err := f.run(t)
	require.NoError(t, err)

	info, err := imagefile.NewInspector().Inspect(filepath.Join(f.cfg.FramesDir, "frame0.png"))
	require.NoError(t, err)
	assert.Equal(t, 20, info.Width)
	// 100 bytes * 8 / (20*10)
	assert.InDelta(t, 4.0, res.Records[0].BitsPerPixel, 1e-9)
}

func TestPipelineFailureIsReported(t *testing.T) {
	f := newPipelineFixture(t, 2)
	f.extractor.err = errors.New("decoder exploded")

	res, err := f.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract_frames")
	assert.Equal(t, entity.RunStatusFailed, res.Run.Status)

	stored, err := f.repo.FindByID(context.Background(), res.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RunStatusFailed, stored.Status)

	require.Len(t, f.notifier.errors, 1)
	assert.Contains(t, f.notifier.errors[0], "decoder exploded")

	var msg entity.RunStatusMessage
	require.NoError(t, json.Unmarshal(f.publisher.messages[len(f.publisher.messages)-1], &msg))
	assert.Equal(t, entity.RunStatusFailed, msg.Status)
}

func TestPipelineRunRecordFailureIsReported(t *testing.T) {
	f := newPipelineFixture(t, 1)
	f.repo.createErr = errors.New("connection refused")

	res, err := f.run(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create run record")
	assert.Equal(t, entity.RunStatusFailed, res.Run.Status)
	assert.NoFileExists(t, f.cfg.CompressedZip)

	require.Len(t, f.notifier.errors, 1)
	assert.Contains(t, f.notifier.errors[0], "connection refused")

	require.NotEmpty(t, f.publisher.messages)
	var msg entity.RunStatusMessage
	require.NoError(t, json.Unmarshal(f.publisher.messages[len(f.publisher.messages)-1], &msg))
	assert.Equal(t, entity.RunStatusFailed, msg.Status)
}

func TestPipelineWarnsOnFrameGaps(t *testing.T) {
	f := newPipelineFixture(t, 3)
	f.extractor.alpha = map[int]bool{1: true}

	core, logs := observer.New(zap.WarnLevel)
	_, err := f.runWithLogger(t, zap.New(core))
	require.NoError(t, err)

	gapLogs := logs.FilterMessageSnippet("not contiguous").All()
	require.Len(t, gapLogs, 1)
	assert.Equal(t, "[1]", fmt.Sprint(gapLogs[0].ContextMap()["missing_frames"]))
}

func TestSequenceGaps(t *testing.T) {
	naming := entity.NewNamingConvention("hific-lo")
	rec := func(i int) entity.FrameRecord {
		return entity.FrameRecord{OutputPath: filepath.Join("out_video", naming.OutputName(fmt.Sprintf("frame%d", i)))}
	}

	assert.Empty(t, SequenceGaps([]entity.FrameRecord{rec(0), rec(1), rec(2)}, naming))
	assert.Equal(t, []int{0, 2, 3}, SequenceGaps([]entity.FrameRecord{rec(1), rec(4)}, naming))
	assert.Empty(t, SequenceGaps(nil, naming))
}

func TestPipelineCodecFailureStopsRun(t *testing.T) {
	f := newPipelineFixture(t, 2)
	f.codec.failOn = "frame0.png"

	_, err := f.run(t)
	require.Error(t, err)
	assert.ErrorIs(t, err, errCodec)
	assert.NoFileExists(t, f.cfg.CompressedZip)
}

func TestPipelineUploadsArtifacts(t *testing.T) {
	f := newPipelineFixture(t, 1)
	storage := &fakeStorage{}
	f.deps.Storage = storage
	f.cfg.InputKey = "uploads/parrot.mp4"

	res, err := f.run(t)
	require.NoError(t, err)

	prefix := res.Run.ID.String() + "/"
	assert.ElementsMatch(t, []string{
		prefix + "compressed_video.hific.zip",
		prefix + "decompressed_video.hific.zip",
		prefix + "compression_statistics.json",
		prefix + "out_hific_lo_parrot.mp4",
	}, storage.uploaded)
}

func TestWriteSummary(t *testing.T) {
	f := newPipelineFixture(t, 1)
	res, err := f.run(t)
	require.NoError(t, err)

	var buf bytes.Buffer
	WriteSummary(&buf, res, f.cfg)
	out := buf.String()
	assert.Contains(t, out, "All done!")
	assert.Contains(t, out, "Original video filesize: 0.00GB")
	assert.Contains(t, out, "extract_frames")
	assert.Contains(t, out, "Decompressed video saved to: "+res.OutputVideo)
}
