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

// replicaColumns is the ordered list of columns selected in replica queries.
// Must match the scan order in scanReplica.
const replicaColumns = `id, medium_id, display_order, has_thumbnail, original_url, mime_type, created_at, updated_at`

func scanReplica(scanner interface{ Scan(dest ...any) error }) (*domain.Replica, error) {
	var r domain.Replica

	var (
		displayOrder sql.NullInt64
		hasThumbnail int
		createdAt    string
		updatedAt    string
	)

	err := scanner.Scan(
		&r.ID,
		&r.MediumID,
		&displayOrder,
		&hasThumbnail,
		&r.OriginalURL,
		&r.MimeType,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if displayOrder.Valid {
		order := int(displayOrder.Int64)
		r.DisplayOrder = &order
	}
	r.HasThumbnail = hasThumbnail != 0

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateReplica inserts a new replica for an existing medium.
// Returns store.ErrAlreadyExists when the display position is already taken.
func (s *Store) CreateReplica(ctx context.Context, params store.CreateReplicaParams) (*domain.Replica, error) {
	if err := s.validate.Validate(params); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	replicaID, err := id.New()
	if err != nil {
		return nil, fmt.Errorf("generate replica id: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO replicas (id, medium_id, display_order, has_thumbnail, original_url, mime_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		replicaID,
		params.MediumID,
		nullInt(params.DisplayOrder),
		boolToInt(params.HasThumbnail),
		params.OriginalURL,
		params.MimeType,
		formatTime(now),
		formatTime(now),
	)
	if isUniqueViolation(err) {
		return nil, store.ErrAlreadyExists.WithMessage("display position already taken")
	}
	if err != nil {
		return nil, err
	}

	return &domain.Replica{
		ID:           replicaID,
		MediumID:     params.MediumID,
		DisplayOrder: params.DisplayOrder,
		HasThumbnail: params.HasThumbnail,
		OriginalURL:  params.OriginalURL,
		MimeType:     params.MimeType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetReplica retrieves a replica by id.
// Returns store.ErrNotFound if the replica does not exist.
func (s *Store) GetReplica(ctx context.Context, replicaID string) (*domain.Replica, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+replicaColumns+` FROM replicas WHERE id = ?`, replicaID)

	r, err := scanReplica(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// loadMediaReplicas fetches replicas for a batch of media in one round trip,
// keyed by medium id. Per medium the order is display_order ascending with
// unordered replicas last, then replica id.
func (s *Store) loadMediaReplicas(ctx context.Context, q querier, mediumIDs []string) (map[string][]*domain.Replica, error) {
	if len(mediumIDs) == 0 {
		return map[string][]*domain.Replica{}, nil
	}

	args := make([]any, len(mediumIDs))
	for i, mid := range mediumIDs {
		args[i] = mid
	}

	query := fmt.Sprintf(`
		SELECT %s FROM replicas
		WHERE medium_id IN (%s)
		ORDER BY medium_id, display_order IS NULL, display_order ASC, id ASC`,
		replicaColumns, placeholders(len(mediumIDs)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byMedium := make(map[string][]*domain.Replica)
	for rows.Next() {
		r, err := scanReplica(rows)
		if err != nil {
			return nil, err
		}
		byMedium[r.MediumID] = append(byMedium[r.MediumID], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return byMedium, nil
}

// replicaIDsForMedium returns the medium's replica ids inside the given
// transaction, ordered like loadMediaReplicas.
func replicaIDsForMedium(ctx context.Context, tx *sql.Tx, mediumID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM replicas
		WHERE medium_id = ?
		ORDER BY display_order IS NULL, display_order ASC, id ASC`, mediumID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return nil, err
		}
		ids = append(ids, rid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
