package statsfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kavofa/hific-video/internal/domain/entity"
)

// Store persists the ordered frame statistics as a JSON array. Timing fields
// that were not measured are omitted rather than written as zero.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Save(_ context.Context, path string, records []entity.FrameRecord) error {
	if records == nil {
		records = []entity.FrameRecord{}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create statistics file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}
	return f.Close()
}

func (s *Store) Load(_ context.Context, path string) ([]entity.FrameRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statistics file: %w", err)
	}
	var records []entity.FrameRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return records, nil
}
