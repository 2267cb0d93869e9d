package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/aoiforge/internal/domain/sample"
	"github.com/rpggio/aoiforge/internal/repository"
)

// SampleRepository implements sample.Repository for SQLite
type SampleRepository struct {
	db *DB
}

var _ sample.Repository = (*SampleRepository)(nil)

// NewSampleRepository creates a new SampleRepository
func NewSampleRepository(db *DB) *SampleRepository {
	return &SampleRepository{db: db}
}

const sampleColumns = `id, filename, thumbnail_ref, line, defects, boxes, status, upload_date`

// Add inserts samples in one transaction; a duplicate ID rolls back the batch.
func (r *SampleRepository) Add(ctx context.Context, samples ...sample.Sample) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (`+sampleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		if s.ID == "" {
			return repository.ErrInvalidInput
		}
		defects, boxes, err := encodeAnnotations(s)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			s.ID,
			s.Filename,
			s.ThumbnailRef,
			s.Line,
			defects,
			boxes,
			s.Status,
			s.UploadDate.UTC(),
		); err != nil {
			switch {
			case isUniqueViolation(err):
				return fmt.Errorf("sample %s: %w", s.ID, repository.ErrConflict)
			case isCheckViolation(err):
				return fmt.Errorf("sample %s: %w", s.ID, repository.ErrInvalidInput)
			}
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit samples: %w", err)
	}
	return nil
}

// Get retrieves a sample by ID
func (r *SampleRepository) Get(ctx context.Context, id string) (*sample.Sample, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sampleColumns+` FROM samples WHERE id = ?`, id)
	s, err := scanSample(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get sample: %w", err)
	}
	return s, nil
}

// List returns matching samples in insertion order.
func (r *SampleRepository) List(ctx context.Context, filter sample.Filter) ([]sample.Sample, error) {
	query := `SELECT ` + sampleColumns + ` FROM samples`

	var args []any
	var conditions []string
	if filter.Line != nil {
		conditions = append(conditions, "line = ?")
		args = append(args, *filter.Line)
	}
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		conditions = append(conditions, "instr(lower(filename), ?) > 0")
		args = append(args, q)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}
	defer rows.Close()

	out := []sample.Sample{}
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample rows: %w", err)
	}
	return out, nil
}

// Update replaces the mutable fields of an existing sample.
func (r *SampleRepository) Update(ctx context.Context, s *sample.Sample) error {
	if s == nil {
		return repository.ErrInvalidInput
	}
	defects, boxes, err := encodeAnnotations(*s)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE samples
		SET filename = ?, thumbnail_ref = ?, line = ?, defects = ?, boxes = ?, status = ?, upload_date = ?
		WHERE id = ?
	`,
		s.Filename,
		s.ThumbnailRef,
		s.Line,
		defects,
		boxes,
		s.Status,
		s.UploadDate.UTC(),
		s.ID,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("sample %s: %w", s.ID, repository.ErrInvalidInput)
		}
		return fmt.Errorf("failed to update sample: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Count returns the number of stored samples.
func (r *SampleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (*sample.Sample, error) {
	var s sample.Sample
	var defects, boxes string
	if err := row.Scan(
		&s.ID,
		&s.Filename,
		&s.ThumbnailRef,
		&s.Line,
		&defects,
		&boxes,
		&s.Status,
		&s.UploadDate,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(defects), &s.Defects); err != nil {
		return nil, fmt.Errorf("decode defects for %s: %w", s.ID, err)
	}
	if err := json.Unmarshal([]byte(boxes), &s.Boxes); err != nil {
		return nil, fmt.Errorf("decode boxes for %s: %w", s.ID, err)
	}
	if len(s.Boxes) == 0 {
		s.Boxes = nil
	}
	return &s, nil
}

func encodeAnnotations(s sample.Sample) (string, string, error) {
	defects := s.Defects
	if defects == nil {
		defects = []string{}
	}
	d, err := json.Marshal(defects)
	if err != nil {
		return "", "", fmt.Errorf("encode defects: %w", err)
	}
	boxes := s.Boxes
	if boxes == nil {
		boxes = []sample.BoundingBox{}
	}
	b, err := json.Marshal(boxes)
	if err != nil {
		return "", "", fmt.Errorf("encode boxes: %w", err)
	}
	return string(d), string(b), nil
}
