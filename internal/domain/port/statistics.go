package port

import (
	"context"

	"github.com/kavofa/hific-video/internal/domain/entity"
)

type StatisticsStore interface {
	Save(ctx context.Context, path string, records []entity.FrameRecord) error
	Load(ctx context.Context, path string) ([]entity.FrameRecord, error)
}
