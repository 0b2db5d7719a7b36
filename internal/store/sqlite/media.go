package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/id"
	"github.com/curioapp/curio-server/internal/store"
)

// mediumColumns is the ordered list of columns selected in media queries.
// Must match the scan order in scanMedium.
const mediumColumns = `id, created_at, updated_at`

// scanMedium scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Medium. Related collections are left nil; attachRelations fills
// them per request.
func scanMedium(scanner interface{ Scan(dest ...any) error }) (*domain.Medium, error) {
	var m domain.Medium

	var (
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&m.ID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	m.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	m.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// keysetPredicate returns WHERE fragments and args for the page's cursor
// bounds over (alias.created_at, alias.id).
//
// Both bounds are exclusive and compare lexicographically on the tuple,
// never on created_at alone; stored timestamps are fixed-width so the
// string comparison is chronological.
func keysetPredicate(alias string, page store.Page) ([]string, []any) {
	var conds []string
	var args []any

	timeCol := alias + ".created_at"
	idCol := alias + ".id"

	if page.Since != nil {
		conds = append(conds, fmt.Sprintf("(%s > ? OR (%s = ? AND %s > ?))", timeCol, timeCol, idCol))
		ts := formatTime(page.Since.CreatedAt)
		args = append(args, ts, ts, page.Since.ID)
	}
	if page.Until != nil {
		conds = append(conds, fmt.Sprintf("(%s < ? OR (%s = ? AND %s < ?))", timeCol, timeCol, idCol))
		ts := formatTime(page.Until.CreatedAt)
		args = append(args, ts, ts, page.Until.ID)
	}
	return conds, args
}

// orderClause returns the shared ORDER BY over (created_at, id).
func orderClause(alias string, order store.SortOrder) string {
	dir := "ASC"
	if order == store.OrderDesc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s.created_at %s, %s.id %s", alias, dir, alias, dir)
}

// queryMedia runs a finished media query and scans the result rows.
func queryMedia(ctx context.Context, q querier, query string, args ...any) ([]*domain.Medium, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	media := []*domain.Medium{}
	for rows.Next() {
		m, err := scanMedium(rows)
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return media, nil
}

// attachRelations fills the requested related collections onto a batch of
// media in place: one loader round trip per enabled category regardless of
// batch size. Categories that are requested but empty become empty slices;
// a medium with zero related rows is not an error.
func (s *Store) attachRelations(ctx context.Context, q querier, media []*domain.Medium, opts store.LoadOptions) error {
	if len(media) == 0 {
		return nil
	}

	ids := make([]string, len(media))
	for i, m := range media {
		ids[i] = m.ID
	}

	if opts.TagDepth != nil {
		byMedium, err := s.loadMediaTags(ctx, q, ids, *opts.TagDepth)
		if err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
		for _, m := range media {
			m.Tags = byMedium[m.ID]
			if m.Tags == nil {
				m.Tags = []domain.TagGroup{}
			}
		}
	}

	if opts.WithReplicas {
		byMedium, err := s.loadMediaReplicas(ctx, q, ids)
		if err != nil {
			return fmt.Errorf("load replicas: %w", err)
		}
		for _, m := range media {
			m.Replicas = byMedium[m.ID]
			if m.Replicas == nil {
				m.Replicas = []*domain.Replica{}
			}
		}
	}

	if opts.WithSources {
		byMedium, err := s.loadMediaSources(ctx, q, ids)
		if err != nil {
			return fmt.Errorf("load sources: %w", err)
		}
		for _, m := range media {
			m.Sources = byMedium[m.ID]
			if m.Sources == nil {
				m.Sources = []*domain.Source{}
			}
		}
	}

	return nil
}

// GetMediaByIDs retrieves the media in ids, ordered by (created_at, id)
// ascending. Unknown ids are omitted. The result is unbounded; callers
// scope it via the id set.
func (s *Store) GetMediaByIDs(ctx context.Context, ids []string, opts store.LoadOptions) ([]*domain.Medium, error) {
	if len(ids) == 0 {
		return []*domain.Medium{}, nil
	}

	args := make([]any, len(ids))
	for i, mid := range ids {
		args[i] = mid
	}

	query := fmt.Sprintf(`
		SELECT %s FROM media
		WHERE id IN (%s)
		ORDER BY created_at ASC, id ASC`,
		mediumColumns, placeholders(len(ids)))

	media, err := queryMedia(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, s.db, media, opts); err != nil {
		return nil, err
	}
	return media, nil
}

// GetMediaBySourceIDs retrieves media linked to any of the given sources.
// Media matching several sources appear once.
func (s *Store) GetMediaBySourceIDs(ctx context.Context, sourceIDs []string, page store.Page, opts store.LoadOptions) ([]*domain.Medium, error) {
	if len(sourceIDs) == 0 {
		return []*domain.Medium{}, nil
	}
	page.Clamp(s.limits)

	args := make([]any, len(sourceIDs))
	for i, sid := range sourceIDs {
		args[i] = sid
	}

	conds := []string{fmt.Sprintf("ms.source_id IN (%s)", placeholders(len(sourceIDs)))}
	keyConds, keyArgs := keysetPredicate("m", page)
	conds = append(conds, keyConds...)
	args = append(args, keyArgs...)
	args = append(args, page.Limit)

	query := fmt.Sprintf(`
		SELECT m.id, m.created_at, m.updated_at
		FROM media m
		JOIN media_sources ms ON ms.medium_id = m.id
		WHERE %s
		GROUP BY m.id, m.created_at, m.updated_at
		%s
		LIMIT ?`,
		strings.Join(conds, " AND "), orderClause("m", page.Order))

	media, err := queryMedia(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, s.db, media, opts); err != nil {
		return nil, err
	}
	return media, nil
}

// GetMediaByTagPairs retrieves media matching every supplied tag predicate.
// A predicate (tag, type) is satisfied when the medium carries that tag, or
// any descendant of it, under that type. Predicates combine with AND.
func (s *Store) GetMediaByTagPairs(ctx context.Context, pairs []domain.TagPair, page store.Page, opts store.LoadOptions) ([]*domain.Medium, error) {
	if len(pairs) == 0 {
		return []*domain.Medium{}, nil
	}
	if err := s.validate.Validate(struct {
		Pairs []domain.TagPair `validate:"dive"`
	}{pairs}); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}
	page.Clamp(s.limits)

	pairConds := make([]string, len(pairs))
	args := make([]any, 0, len(pairs)*2+5)
	for i, p := range pairs {
		pairConds[i] = "(tp.ancestor_id = ? AND mt.tag_type_id = ?)"
		args = append(args, p.TagID, p.TagTypeID)
	}

	conds := []string{"(" + strings.Join(pairConds, " OR ") + ")"}
	keyConds, keyArgs := keysetPredicate("m", page)
	conds = append(conds, keyConds...)
	args = append(args, keyArgs...)
	// HAVING counts distinct matched predicates, so every pair must hit.
	args = append(args, len(pairs), page.Limit)

	query := fmt.Sprintf(`
		SELECT m.id, m.created_at, m.updated_at
		FROM media m
		JOIN media_tags mt ON mt.medium_id = m.id
		JOIN tag_paths tp ON tp.descendant_id = mt.tag_id
		WHERE %s
		GROUP BY m.id, m.created_at, m.updated_at
		HAVING COUNT(DISTINCT tp.ancestor_id || '/' || mt.tag_type_id) = ?
		%s
		LIMIT ?`,
		strings.Join(conds, " AND "), orderClause("m", page.Order))

	media, err := queryMedia(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, s.db, media, opts); err != nil {
		return nil, err
	}
	return media, nil
}

// ListMedia retrieves one unfiltered page of media.
func (s *Store) ListMedia(ctx context.Context, page store.Page, opts store.LoadOptions) ([]*domain.Medium, error) {
	page.Clamp(s.limits)

	conds, args := keysetPredicate("media", page)
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, page.Limit)

	query := fmt.Sprintf(`
		SELECT %s FROM media
		%s
		%s
		LIMIT ?`,
		mediumColumns, where, orderClause("media", page.Order))

	media, err := queryMedia(ctx, s.db, query, args...)
	if err != nil {
		return nil, err
	}
	if err := s.attachRelations(ctx, s.db, media, opts); err != nil {
		return nil, err
	}
	return media, nil
}

// insertSourceLinks bulk-inserts media_sources rows in one statement.
// Existing links are left alone. Empty input is a no-op.
func insertSourceLinks(ctx context.Context, tx *sql.Tx, mediumID string, sourceIDs []string) error {
	if len(sourceIDs) == 0 {
		return nil
	}

	values := make([]string, len(sourceIDs))
	args := make([]any, 0, len(sourceIDs)*2)
	for i, sid := range sourceIDs {
		values[i] = "(?, ?)"
		args = append(args, mediumID, sid)
	}

	query := fmt.Sprintf(`
		INSERT INTO media_sources (medium_id, source_id)
		VALUES %s
		ON CONFLICT DO NOTHING`, strings.Join(values, ", "))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert media_sources: %w", err)
	}
	return nil
}

// insertTagLinks bulk-inserts media_tags rows in one statement.
// Existing links are left alone. Empty input is a no-op.
func insertTagLinks(ctx context.Context, tx *sql.Tx, mediumID string, pairs []domain.TagPair) error {
	if len(pairs) == 0 {
		return nil
	}

	values := make([]string, len(pairs))
	args := make([]any, 0, len(pairs)*3)
	for i, p := range pairs {
		values[i] = "(?, ?, ?)"
		args = append(args, mediumID, p.TagID, p.TagTypeID)
	}

	query := fmt.Sprintf(`
		INSERT INTO media_tags (medium_id, tag_id, tag_type_id)
		VALUES %s
		ON CONFLICT DO NOTHING`, strings.Join(values, ", "))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert media_tags: %w", err)
	}
	return nil
}

// deleteSourceLinks removes the medium's links to the given sources.
func deleteSourceLinks(ctx context.Context, tx *sql.Tx, mediumID string, sourceIDs []string) error {
	if len(sourceIDs) == 0 {
		return nil
	}

	args := make([]any, 0, len(sourceIDs)+1)
	args = append(args, mediumID)
	for _, sid := range sourceIDs {
		args = append(args, sid)
	}

	query := fmt.Sprintf(`
		DELETE FROM media_sources
		WHERE medium_id = ? AND source_id IN (%s)`, placeholders(len(sourceIDs)))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete media_sources: %w", err)
	}
	return nil
}

// deleteTagLinks removes the medium's links matching any supplied pair.
func deleteTagLinks(ctx context.Context, tx *sql.Tx, mediumID string, pairs []domain.TagPair) error {
	if len(pairs) == 0 {
		return nil
	}

	pairConds := make([]string, len(pairs))
	args := make([]any, 0, len(pairs)*2+1)
	args = append(args, mediumID)
	for i, p := range pairs {
		pairConds[i] = "(tag_id = ? AND tag_type_id = ?)"
		args = append(args, p.TagID, p.TagTypeID)
	}

	query := fmt.Sprintf(`
		DELETE FROM media_tags
		WHERE medium_id = ? AND (%s)`, strings.Join(pairConds, " OR "))

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete media_tags: %w", err)
	}
	return nil
}

// CreateMedium inserts a medium with its initial source and tag links in
// one transaction and returns the composed aggregate. Replicas are always
// empty on a freshly created medium.
func (s *Store) CreateMedium(ctx context.Context, params store.CreateMediumParams) (*domain.Medium, error) {
	if err := s.validate.Validate(params); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	mediumID, err := id.New()
	if err != nil {
		return nil, fmt.Errorf("generate medium id: %w", err)
	}

	createdAt := time.Now().UTC()
	if params.CreatedAt != nil {
		createdAt = params.CreatedAt.UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO media (id, created_at, updated_at)
		VALUES (?, ?, ?)`,
		mediumID, formatTime(createdAt), formatTime(createdAt),
	)
	if err != nil {
		return nil, err
	}

	if err := insertSourceLinks(ctx, tx, mediumID, params.SourceIDs); err != nil {
		return nil, err
	}
	if err := insertTagLinks(ctx, tx, mediumID, params.TagPairs); err != nil {
		return nil, err
	}

	m := &domain.Medium{
		ID:        mediumID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.attachRelations(ctx, tx, []*domain.Medium{m}, params.Load); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("medium created",
			"medium_id", mediumID,
			"sources", len(params.SourceIDs),
			"tags", len(params.TagPairs),
		)
	}
	return m, nil
}

// UpdateMedium applies link changes, replica reordering, and timestamp
// control in one transaction and returns the composed aggregate.
//
// The medium's replica rows are fetched under the transaction's write lock
// first; an empty set fails with store.ErrNotFound. A non-empty
// ReplicaOrder must be exactly set-equal to the current replica ids or the
// operation fails with store.ErrReplicaMismatch and nothing is written.
func (s *Store) UpdateMedium(ctx context.Context, params store.UpdateMediumParams) (*domain.Medium, error) {
	if err := s.validate.Validate(params); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Promote to a write transaction immediately. SQLite's writer lock is
	// the row lock here: concurrent updates on the same medium serialize
	// behind it.
	if _, err := tx.ExecContext(ctx,
		`UPDATE media SET updated_at = updated_at WHERE id = ?`, params.ID); err != nil {
		return nil, err
	}

	current, err := replicaIDsForMedium(ctx, tx, params.ID)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, store.ErrNotFound
	}

	if len(params.ReplicaOrder) > 0 {
		if !sameIDSet(params.ReplicaOrder, current) {
			return nil, store.ErrReplicaMismatch
		}

		// Clear every slot before reassigning; sequential assignment
		// against occupied slots would trip the (medium_id, display_order)
		// uniqueness mid-shuffle.
		if _, err := tx.ExecContext(ctx,
			`UPDATE replicas SET display_order = NULL WHERE medium_id = ?`, params.ID); err != nil {
			return nil, err
		}

		now := formatTime(time.Now().UTC())
		for i, replicaID := range params.ReplicaOrder {
			if _, err := tx.ExecContext(ctx,
				`UPDATE replicas SET display_order = ?, updated_at = ? WHERE id = ?`,
				i+1, now, replicaID); err != nil {
				return nil, err
			}
		}
	}

	if err := insertSourceLinks(ctx, tx, params.ID, params.AddSourceIDs); err != nil {
		return nil, err
	}
	if err := deleteSourceLinks(ctx, tx, params.ID, params.RemoveSourceIDs); err != nil {
		return nil, err
	}
	if err := insertTagLinks(ctx, tx, params.ID, params.AddTagPairs); err != nil {
		return nil, err
	}
	if err := deleteTagLinks(ctx, tx, params.ID, params.RemoveTagPairs); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if params.CreatedAt != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE media SET created_at = ?, updated_at = ? WHERE id = ?`,
			formatTime(params.CreatedAt.UTC()), formatTime(now), params.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE media SET updated_at = ? WHERE id = ?`,
			formatTime(now), params.ID)
	}
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx,
		`SELECT `+mediumColumns+` FROM media WHERE id = ?`, params.ID)
	m, err := scanMedium(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachRelations(ctx, tx, []*domain.Medium{m}, params.Load); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("medium updated", "medium_id", params.ID)
	}
	return m, nil
}

// DeleteMedium deletes a medium; link and replica rows cascade. Absence of
// the medium is a result, not an error.
func (s *Store) DeleteMedium(ctx context.Context, mediumID string) (store.DeleteResult, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, mediumID)
	if err != nil {
		return store.DeleteResult{}, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return store.DeleteResult{}, err
	}

	if s.logger != nil && n > 0 {
		s.logger.Debug("medium deleted", "medium_id", mediumID)
	}
	return store.DeleteResult{Deleted: n > 0, Affected: n}, nil
}

// sameIDSet reports whether a and b contain exactly the same ids,
// duplicates included, regardless of order.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}
