package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kavofa/hific-video/internal/domain/entity"
)

type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) Create(ctx context.Context, run *entity.Run) error {
	query := `
		INSERT INTO compression_runs (
			id, input_video, model, status, frame_count, source_fps,
			processed, skipped, failed, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.InputVideo, run.Model, string(run.Status),
		run.FrameCount, run.SourceFPS,
		run.Processed, run.Skipped, run.Failed, run.ErrorMessage,
		run.CreatedAt, run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (r *RunRepository) Update(ctx context.Context, run *entity.Run) error {
	query := `
		UPDATE compression_runs SET
			status=$2, frame_count=$3, source_fps=$4, processed=$5,
			skipped=$6, failed=$7, error_message=$8, updated_at=$9, completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		run.ID, string(run.Status), run.FrameCount, run.SourceFPS,
		run.Processed, run.Skipped, run.Failed, run.ErrorMessage,
		run.UpdatedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (r *RunRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	query := `
		SELECT id, input_video, model, status, frame_count, source_fps,
			processed, skipped, failed, error_message,
			created_at, updated_at, completed_at
		FROM compression_runs WHERE id=$1`

	run := &entity.Run{}
	var status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.InputVideo, &run.Model, &status,
		&run.FrameCount, &run.SourceFPS,
		&run.Processed, &run.Skipped, &run.Failed, &run.ErrorMessage,
		&run.CreatedAt, &run.UpdatedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find run by id: %w", err)
	}
	run.Status = entity.RunStatus(status)
	return run, nil
}

// SaveRecords replaces the frame records of a run, keeping their order in seq.
func (r *RunRepository) SaveRecords(ctx context.Context, runID uuid.UUID, records []entity.FrameRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM frame_records WHERE run_id=$1`, runID); err != nil {
		return fmt.Errorf("clear frame records: %w", err)
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		rows[i] = []any{
			runID, i, rec.OutputPath, rec.NumBytes, rec.BitsPerPixel,
			rec.CompressedPath, rec.CompressionTime, rec.DecompressionTime,
		}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"frame_records"},
		[]string{
			"run_id", "seq", "output_path", "num_bytes", "bits_per_pixel",
			"compressed_path", "compression_time_seconds", "decompression_time_seconds",
		},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy frame records: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *RunRepository) ListRecords(ctx context.Context, runID uuid.UUID) ([]entity.FrameRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT output_path, num_bytes, bits_per_pixel,
			compressed_path, compression_time_seconds, decompression_time_seconds
		FROM frame_records WHERE run_id=$1 ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frame records: %w", err)
	}
	defer rows.Close()

	var records []entity.FrameRecord
	for rows.Next() {
		var rec entity.FrameRecord
		if err := rows.Scan(
			&rec.OutputPath, &rec.NumBytes, &rec.BitsPerPixel,
			&rec.CompressedPath, &rec.CompressionTime, &rec.DecompressionTime,
		); err != nil {
			return nil, fmt.Errorf("scan frame record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
