package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/kavofa/hific-video/internal/domain/entity"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	Update(ctx context.Context, run *entity.Run) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	SaveRecords(ctx context.Context, runID uuid.UUID, records []entity.FrameRecord) error
	ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.FrameRecord, error)
}
