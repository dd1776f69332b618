package entity

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "PENDING"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run is one execution of the compression pipeline over a single input video.
type Run struct {
	ID           uuid.UUID
	InputVideo   string
	Model        string
	Status       RunStatus
	FrameCount   int
	SourceFPS    float64
	Processed    int
	Skipped      int
	Failed       int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

func NewRun(inputVideo, model string) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:         uuid.New(),
		InputVideo: inputVideo,
		Model:      model,
		Status:     RunStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *Run) MarkRunning() {
	r.Status = RunStatusRunning
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) RecordExtraction(frameCount int, fps float64) {
	r.FrameCount = frameCount
	r.SourceFPS = fps
	r.UpdatedAt = time.Now().UTC()
}

// RecordOutcomes tallies per-frame outcomes. Directory entries and entries
// that never ran are not counted.
func (r *Run) RecordOutcomes(outcomes []FrameOutcome) {
	r.Processed, r.Skipped, r.Failed = 0, 0, 0
	for _, o := range outcomes {
		switch o.State {
		case FrameStateProcessed:
			r.Processed++
		case FrameStateFailed:
			r.Failed++
		case FrameStateSkippedDir, "":
		default:
			r.Skipped++
		}
	}
	r.UpdatedAt = time.Now().UTC()
}

func (r *Run) MarkCompleted() {
	now := time.Now().UTC()
	r.Status = RunStatusCompleted
	r.UpdatedAt = now
	r.CompletedAt = &now
}

func (r *Run) MarkFailed(errMsg string) {
	r.Status = RunStatusFailed
	r.ErrorMessage = errMsg
	r.UpdatedAt = time.Now().UTC()
}
