package entity

import "github.com/google/uuid"

// RunStatusMessage is published to the status exchange when a run finishes.
type RunStatusMessage struct {
	RunID           uuid.UUID `json:"run_id"`
	Status          RunStatus `json:"status"`
	InputVideo      string    `json:"input_video"`
	Model           string    `json:"model"`
	FrameCount      int       `json:"frame_count,omitempty"`
	Processed       int       `json:"processed"`
	Skipped         int       `json:"skipped"`
	Failed          int       `json:"failed"`
	CompressedZip   string    `json:"compressed_zip,omitempty"`
	DecompressedZip string    `json:"decompressed_zip,omitempty"`
	OutputVideo     string    `json:"output_video,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
}

func NewRunStatusMessage(run *Run) RunStatusMessage {
	return RunStatusMessage{
		RunID:        run.ID,
		Status:       run.Status,
		InputVideo:   run.InputVideo,
		Model:        run.Model,
		FrameCount:   run.FrameCount,
		Processed:    run.Processed,
		Skipped:      run.Skipped,
		Failed:       run.Failed,
		ErrorMessage: run.ErrorMessage,
	}
}
