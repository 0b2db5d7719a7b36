package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/id"
	"github.com/curioapp/curio-server/internal/store"
)

// sourceColumns selects a source row joined with its external service.
// Must match the scan order in scanSource.
const sourceColumns = `s.id, s.external_metadata, s.created_at, s.updated_at, es.id, es.slug, es.name`

// scanSource scans one joined source row and decodes its metadata payload.
// A payload that does not match the service's shape is a Deserialize error.
func scanSource(scanner interface{ Scan(dest ...any) error }) (*domain.Source, error) {
	var src domain.Source

	var (
		rawMetadata string
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&src.ID,
		&rawMetadata,
		&createdAt,
		&updatedAt,
		&src.ExternalService.ID,
		&src.ExternalService.Slug,
		&src.ExternalService.Name,
	)
	if err != nil {
		return nil, err
	}

	src.Metadata, err = domain.DecodeExternalMetadata(src.ExternalService.Slug, []byte(rawMetadata))
	if err != nil {
		return nil, store.ErrDeserialize.WithCause(err)
	}

	src.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	src.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &src, nil
}

// CreateSource inserts a new source carrying the given metadata payload.
// Returns store.ErrNotFound when the external service does not exist.
func (s *Store) CreateSource(ctx context.Context, params store.CreateSourceParams) (*domain.Source, error) {
	if err := s.validate.Validate(params); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}
	if params.Metadata == nil {
		return nil, store.ErrInvalidInput.WithMessage("source metadata is required")
	}

	svc, err := s.getExternalService(ctx, s.db, params.ExternalServiceID)
	if err != nil {
		return nil, err
	}

	raw, err := domain.EncodeExternalMetadata(params.Metadata)
	if err != nil {
		return nil, err
	}

	sourceID, err := id.New()
	if err != nil {
		return nil, fmt.Errorf("generate source id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sources (id, external_service_id, external_metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		sourceID, svc.ID, string(raw), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, err
	}

	return &domain.Source{
		ID:              sourceID,
		ExternalService: *svc,
		Metadata:        params.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// GetSource retrieves a source by id with its service and decoded metadata.
// Returns store.ErrNotFound if the source does not exist.
func (s *Store) GetSource(ctx context.Context, sourceID string) (*domain.Source, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sourceColumns+`
		FROM sources s
		JOIN external_services es ON es.id = s.external_service_id
		WHERE s.id = ?`, sourceID)

	src, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}

// loadMediaSources fetches sources for a batch of media in one round trip,
// keyed by medium id and ordered by source id ascending per medium.
func (s *Store) loadMediaSources(ctx context.Context, q querier, mediumIDs []string) (map[string][]*domain.Source, error) {
	if len(mediumIDs) == 0 {
		return map[string][]*domain.Source{}, nil
	}

	args := make([]any, len(mediumIDs))
	for i, mid := range mediumIDs {
		args[i] = mid
	}

	query := fmt.Sprintf(`
		SELECT ms.medium_id, %s
		FROM media_sources ms
		JOIN sources s ON s.id = ms.source_id
		JOIN external_services es ON es.id = s.external_service_id
		WHERE ms.medium_id IN (%s)
		ORDER BY ms.medium_id, s.id ASC`,
		sourceColumns, placeholders(len(mediumIDs)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMedium := make(map[string][]*domain.Source)
	for rows.Next() {
		var mediumID string
		var src domain.Source
		var rawMetadata, createdAt, updatedAt string

		err := rows.Scan(
			&mediumID,
			&src.ID,
			&rawMetadata,
			&createdAt,
			&updatedAt,
			&src.ExternalService.ID,
			&src.ExternalService.Slug,
			&src.ExternalService.Name,
		)
		if err != nil {
			return nil, err
		}

		src.Metadata, err = domain.DecodeExternalMetadata(src.ExternalService.Slug, []byte(rawMetadata))
		if err != nil {
			return nil, store.ErrDeserialize.WithCause(err)
		}
		src.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		src.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, err
		}

		byMedium[mediumID] = append(byMedium[mediumID], &src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return byMedium, nil
}
