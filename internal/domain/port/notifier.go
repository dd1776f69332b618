package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, runID string, inputVideo string, errorMsg string) error
}
