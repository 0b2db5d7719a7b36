package sqlite

import (
	"context"
	"database/sql"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/id"
	"github.com/curioapp/curio-server/internal/store"
)

// serviceColumns is the ordered list of columns selected in service queries.
// Must match the scan order in scanExternalService.
const serviceColumns = `id, slug, name`

func scanExternalService(scanner interface{ Scan(dest ...any) error }) (*domain.ExternalService, error) {
	var svc domain.ExternalService
	if err := scanner.Scan(&svc.ID, &svc.Slug, &svc.Name); err != nil {
		return nil, err
	}
	return &svc, nil
}

// CreateExternalService inserts a new external service. An empty ID is
// filled with a generated one. Returns store.ErrAlreadyExists on duplicate
// id or slug.
func (s *Store) CreateExternalService(ctx context.Context, svc *domain.ExternalService) error {
	if svc.ID == "" {
		generated, err := id.New()
		if err != nil {
			return err
		}
		svc.ID = generated
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO external_services (id, slug, name)
		VALUES (?, ?, ?)`,
		svc.ID, svc.Slug, svc.Name,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListExternalServices returns all external services ordered by slug.
func (s *Store) ListExternalServices(ctx context.Context) ([]*domain.ExternalService, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+serviceColumns+` FROM external_services ORDER BY slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := []*domain.ExternalService{}
	for rows.Next() {
		svc, err := scanExternalService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return services, nil
}

// getExternalService retrieves one service by id.
// Returns store.ErrNotFound if the service does not exist.
func (s *Store) getExternalService(ctx context.Context, q querier, serviceID string) (*domain.ExternalService, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+serviceColumns+` FROM external_services WHERE id = ?`, serviceID)

	svc, err := scanExternalService(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound.WithMessage("external service not found")
	}
	if err != nil {
		return nil, err
	}
	return svc, nil
}
