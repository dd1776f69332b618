package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kavofa/hific-video/internal/domain/entity"
	"github.com/kavofa/hific-video/internal/domain/port"
	"github.com/stretchr/testify/require"
)

const artifactSize = 100

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writeOpaqueFrame(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidImage(w, h, color.RGBA{R: 200, G: 100, B: 50, A: 255})), 0644))
}

func writeAlphaFrame(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 128})
	require.NoError(t, os.WriteFile(path, encodePNG(t, img), 0644))
}

// fakeCodec writes fixed-size artifacts and decodes them into a smaller image
// derived only from the artifact bytes.
type fakeCodec struct {
	mu            sync.Mutex
	compressed    int
	decompressed  int
	failOn        string
	emptyArtifact bool
	delay         func(path string) time.Duration
	decodedWidth  int
	decodedHeight int
}

var errCodec = errors.New("model crashed")

func (c *fakeCodec) Compress(ctx context.Context, model, inputPath, outputPath string) error {
	if c.delay != nil {
		time.Sleep(c.delay(inputPath))
	}
	if c.failOn != "" && filepath.Base(inputPath) == c.failOn {
		return errCodec
	}
	c.mu.Lock()
	c.compressed++
	c.mu.Unlock()

	if c.emptyArtifact {
		return os.WriteFile(outputPath, nil, 0644)
	}
	payload := bytes.Repeat([]byte{0}, artifactSize)
	copy(payload, fmt.Sprintf("%s:%s", model, filepath.Base(inputPath)))
	return os.WriteFile(outputPath, payload, 0644)
}

func (c *fakeCodec) Decompress(ctx context.Context, inputPath, outputPath string) error {
	c.mu.Lock()
	c.decompressed++
	c.mu.Unlock()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	w, h := c.decodedWidth, c.decodedHeight
	if w == 0 {
		w, h = 8, 8
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, color.RGBA{R: data[0], G: data[1], B: data[2], A: 255})); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0644)
}

func (c *fakeCodec) calls() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compressed, c.decompressed
}

type fakeExtractor struct {
	t      *testing.T
	naming entity.NamingConvention
	frames int
	alpha  map[int]bool
	fps    float64
	err    error
}

func (e *fakeExtractor) Probe(ctx context.Context, videoPath string) (*port.VideoInfo, error) {
	return &port.VideoInfo{FPS: e.fps, FrameCount: e.frames, Width: 40, Height: 20}, nil
}

func (e *fakeExtractor) ExtractFrames(ctx context.Context, videoPath, outputDir string) (*port.FrameExtractionResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	info, _ := e.Probe(ctx, videoPath)
	var paths []string
	for i := 0; i < e.frames; i++ {
		p := filepath.Join(outputDir, e.naming.FrameFileName(i))
		if e.alpha[i] {
			writeAlphaFrame(e.t, p, info.Width, info.Height)
		} else {
			writeOpaqueFrame(e.t, p, info.Width, info.Height)
		}
		paths = append(paths, p)
	}
	return &port.FrameExtractionResult{Info: *info, FramePaths: paths, FrameCount: len(paths)}, nil
}

// fakeEncoder concatenates the frames matched by the pattern into the output.
type fakeEncoder struct {
	requests []port.VideoEncodeRequest
}

func (e *fakeEncoder) EncodeSequence(ctx context.Context, req port.VideoEncodeRequest) (string, error) {
	e.requests = append(e.requests, req)
	var buf bytes.Buffer
	for i := 0; ; i++ {
		data, err := os.ReadFile(filepath.Join(req.InputDir, fmt.Sprintf(req.Pattern, i)))
		if err != nil {
			break
		}
		buf.Write(data)
	}
	if buf.Len() == 0 {
		return "", errors.New("no input frames matched")
	}
	out, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return "", err
	}
	return out, os.WriteFile(out, buf.Bytes(), 0644)
}

type fakeRepo struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]entity.Run
	records   map[uuid.UUID][]entity.FrameRecord
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: map[uuid.UUID]entity.Run{}, records: map[uuid.UUID][]entity.FrameRecord{}}
}

func (r *fakeRepo) Create(ctx context.Context, run *entity.Run) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Update(ctx, run)
}

func (r *fakeRepo) Update(ctx context.Context, run *entity.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &run, nil
}

func (r *fakeRepo) SaveRecords(ctx context.Context, runID uuid.UUID, records []entity.FrameRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[runID] = append([]entity.FrameRecord(nil), records...)
	return nil
}

func (r *fakeRepo) ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.FrameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[runID], nil
}

type fakePublisher struct {
	messages [][]byte
}

func (p *fakePublisher) PublishStatus(ctx context.Context, msg []byte) error {
	p.messages = append(p.messages, msg)
	return nil
}

type fakeNotifier struct {
	errors []string
}

func (n *fakeNotifier) NotifyFailure(ctx context.Context, runID, inputVideo, errorMsg string) error {
	n.errors = append(n.errors, errorMsg)
	return nil
}

type fakeStorage struct {
	uploaded []string
}

func (s *fakeStorage) DownloadVideo(ctx context.Context, objectKey, destPath string) error {
	return os.WriteFile(destPath, []byte("video"), 0644)
}

func (s *fakeStorage) UploadArtifact(ctx context.Context, objectKey, srcPath string) error {
	if _, err := os.Stat(srcPath); err != nil {
		return err
	}
	s.uploaded = append(s.uploaded, objectKey)
	return nil
}
