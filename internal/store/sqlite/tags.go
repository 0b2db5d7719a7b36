package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/id"
	"github.com/curioapp/curio-server/internal/store"
)

// tagColumns is the ordered list of tag columns as selected (with alias t)
// in resolver queries. Must match the scan order in scanTagFields.
const tagColumns = `t.id, t.name, t.kana, t.aliases, t.created_at, t.updated_at`

// scanTagFields decodes the tag columns shared by the resolver queries.
func scanTagFields(tagID, name, kana, aliases, createdAt, updatedAt string) (*domain.Tag, error) {
	t := &domain.Tag{
		ID:   tagID,
		Name: name,
		Kana: kana,
	}

	if err := json.Unmarshal([]byte(aliases), &t.Aliases); err != nil {
		return nil, fmt.Errorf("unmarshal tag aliases: %w", err)
	}

	var err error
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// resolveTagRelatives loads the given tags and fills each one's
// single-parent chain (up to depth.Parent) and children subtree (down to
// depth.Child) from the closure table. Exactly two bulk queries are issued
// regardless of batch size: one descendant pass, one ancestor pass.
//
// Children are ordered by tag id ascending at every level. Ids without a
// tag row are silently omitted, since callers may pass supersets.
func (s *Store) resolveTagRelatives(ctx context.Context, q querier, ids []string, depth domain.TagDepth) (map[string]*domain.Tag, error) {
	resolved := make(map[string]*domain.Tag)
	if len(ids) == 0 {
		return resolved, nil
	}

	// Negative depths read as zero. The descendant pass matches the
	// requested tags through their distance-0 rows, so the child bound
	// must never go below that.
	if depth.Parent < 0 {
		depth.Parent = 0
	}
	if depth.Child < 0 {
		depth.Child = 0
	}

	args := make([]any, 0, len(ids)+1)
	for _, tagID := range ids {
		args = append(args, tagID)
	}
	args = append(args, depth.Child)

	// Descendant pass. Distance 0 rows are the requested tags themselves;
	// deeper rows carry their direct parent id for tree assembly. Ordering
	// by distance guarantees a node's parent is scanned before the node.
	query := fmt.Sprintf(`
		SELECT tp.ancestor_id, tp.distance, p.ancestor_id, %s
		FROM tag_paths tp
		JOIN tags t ON t.id = tp.descendant_id
		LEFT JOIN tag_paths p ON p.descendant_id = t.id AND p.distance = 1
		WHERE tp.ancestor_id IN (%s) AND tp.distance <= ?
		ORDER BY tp.ancestor_id, tp.distance ASC, t.id ASC`,
		tagColumns, placeholders(len(ids)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Per requested root, its subtree nodes by id.
	subtrees := make(map[string]map[string]*domain.Tag)
	for rows.Next() {
		var (
			rootID    string
			distance  int
			parentID  sql.NullString
			tagID     string
			name      string
			kana      string
			aliases   string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&rootID, &distance, &parentID, &tagID, &name, &kana, &aliases, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		t, err := scanTagFields(tagID, name, kana, aliases, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}

		nodes := subtrees[rootID]
		if nodes == nil {
			nodes = make(map[string]*domain.Tag)
			subtrees[rootID] = nodes
		}
		nodes[t.ID] = t

		if distance == 0 {
			resolved[rootID] = t
			continue
		}
		if parentID.Valid {
			if parent := nodes[parentID.String]; parent != nil {
				parent.Children = append(parent.Children, t)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if depth.Parent <= 0 || len(resolved) == 0 {
		return resolved, nil
	}

	// Ancestor pass: each requested tag's chain, nearest first.
	baseIDs := make([]string, 0, len(resolved))
	args = args[:0]
	for tagID := range resolved {
		baseIDs = append(baseIDs, tagID)
		args = append(args, tagID)
	}
	args = append(args, depth.Parent)

	query = fmt.Sprintf(`
		SELECT tp.descendant_id, %s
		FROM tag_paths tp
		JOIN tags t ON t.id = tp.ancestor_id
		WHERE tp.descendant_id IN (%s) AND tp.distance BETWEEN 1 AND ?
		ORDER BY tp.descendant_id, tp.distance ASC`,
		tagColumns, placeholders(len(baseIDs)))

	rows, err = q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Walk each chain outward, hanging every ancestor off the previous tip.
	tips := make(map[string]*domain.Tag, len(resolved))
	for tagID, t := range resolved {
		tips[tagID] = t
	}
	for rows.Next() {
		var (
			leafID    string
			tagID     string
			name      string
			kana      string
			aliases   string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&leafID, &tagID, &name, &kana, &aliases, &createdAt, &updatedAt); err != nil {
			return nil, err
		}

		ancestor, err := scanTagFields(tagID, name, kana, aliases, createdAt, updatedAt)
		if err != nil {
			return nil, err
		}

		tip := tips[leafID]
		if tip == nil {
			continue
		}
		tip.Parent = ancestor
		tips[leafID] = ancestor
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return resolved, nil
}

// loadMediaTags fetches tag groups for a batch of media: one junction round
// trip, then hierarchy enrichment via the resolver. Groups are keyed by
// medium id and ordered by tag type id ascending; tags within a group by
// tag id ascending.
func (s *Store) loadMediaTags(ctx context.Context, q querier, mediumIDs []string, depth domain.TagDepth) (map[string][]domain.TagGroup, error) {
	if len(mediumIDs) == 0 {
		return map[string][]domain.TagGroup{}, nil
	}

	args := make([]any, len(mediumIDs))
	for i, mid := range mediumIDs {
		args[i] = mid
	}

	query := fmt.Sprintf(`
		SELECT mt.medium_id, mt.tag_id, tt.id, tt.slug, tt.name
		FROM media_tags mt
		JOIN tag_types tt ON tt.id = mt.tag_type_id
		WHERE mt.medium_id IN (%s)
		ORDER BY mt.medium_id, tt.id ASC, mt.tag_id ASC`,
		placeholders(len(mediumIDs)))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type link struct {
		tagID string
		typ   domain.TagType
	}
	linksByMedium := make(map[string][]link)
	mediumOrder := []string{}
	tagIDSet := make(map[string]struct{})

	for rows.Next() {
		var mediumID string
		var l link
		if err := rows.Scan(&mediumID, &l.tagID, &l.typ.ID, &l.typ.Slug, &l.typ.Name); err != nil {
			return nil, err
		}
		if _, ok := linksByMedium[mediumID]; !ok {
			mediumOrder = append(mediumOrder, mediumID)
		}
		linksByMedium[mediumID] = append(linksByMedium[mediumID], l)
		tagIDSet[l.tagID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagIDs := make([]string, 0, len(tagIDSet))
	for tagID := range tagIDSet {
		tagIDs = append(tagIDs, tagID)
	}
	resolved, err := s.resolveTagRelatives(ctx, q, tagIDs, depth)
	if err != nil {
		return nil, err
	}

	byMedium := make(map[string][]domain.TagGroup, len(linksByMedium))
	for _, mediumID := range mediumOrder {
		var groups []domain.TagGroup
		for _, l := range linksByMedium[mediumID] {
			t := resolved[l.tagID]
			if t == nil {
				continue
			}
			if len(groups) == 0 || groups[len(groups)-1].Type.ID != l.typ.ID {
				groups = append(groups, domain.TagGroup{Type: l.typ})
			}
			groups[len(groups)-1].Tags = append(groups[len(groups)-1].Tags, t)
		}
		byMedium[mediumID] = groups
	}
	return byMedium, nil
}

// CreateTagType inserts a new tag type. An empty ID is filled with a
// generated one. Returns store.ErrAlreadyExists on duplicate id or slug.
func (s *Store) CreateTagType(ctx context.Context, tt *domain.TagType) error {
	if tt.ID == "" {
		generated, err := id.New()
		if err != nil {
			return err
		}
		tt.ID = generated
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tag_types (id, slug, name)
		VALUES (?, ?, ?)`,
		tt.ID, tt.Slug, tt.Name,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ListTagTypes returns all tag types ordered by slug.
func (s *Store) ListTagTypes(ctx context.Context) ([]*domain.TagType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name FROM tag_types ORDER BY slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := []*domain.TagType{}
	for rows.Next() {
		var tt domain.TagType
		if err := rows.Scan(&tt.ID, &tt.Slug, &tt.Name); err != nil {
			return nil, err
		}
		types = append(types, &tt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

// CreateTag inserts a new tag and its closure rows in one transaction: the
// reflexive row plus, when a parent is given, one row per inherited
// ancestor. Name and kana are NFKC-normalized so lookups do not depend on
// the input method's width or composition choices.
// Returns store.ErrNotFound when the parent does not exist.
func (s *Store) CreateTag(ctx context.Context, params store.CreateTagParams) (*domain.Tag, error) {
	if err := s.validate.Validate(params); err != nil {
		return nil, store.ErrInvalidInput.WithCause(err)
	}

	tagID, err := id.New()
	if err != nil {
		return nil, fmt.Errorf("generate tag id: %w", err)
	}

	name := norm.NFKC.String(params.Name)
	kana := norm.NFKC.String(params.Kana)
	aliases := params.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return nil, fmt.Errorf("marshal tag aliases: %w", err)
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tags (id, name, kana, aliases, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		tagID, name, kana, string(aliasesJSON), formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tag_paths (ancestor_id, descendant_id, distance)
		VALUES (?, ?, 0)`, tagID, tagID); err != nil {
		return nil, err
	}

	if params.ParentID != "" {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO tag_paths (ancestor_id, descendant_id, distance)
			SELECT ancestor_id, ?, distance + 1
			FROM tag_paths
			WHERE descendant_id = ?`, tagID, params.ParentID)
		if err != nil {
			return nil, err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, store.ErrNotFound.WithMessage("parent tag not found")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.Tag{
		ID:        tagID,
		Name:      name,
		Kana:      kana,
		Aliases:   aliases,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetTag retrieves a tag by id with its relatives resolved to the given
// depth. Returns store.ErrNotFound if the tag does not exist.
func (s *Store) GetTag(ctx context.Context, tagID string, depth domain.TagDepth) (*domain.Tag, error) {
	resolved, err := s.resolveTagRelatives(ctx, s.db, []string{tagID}, depth)
	if err != nil {
		return nil, err
	}
	t := resolved[tagID]
	if t == nil {
		return nil, store.ErrNotFound
	}
	return t, nil
}

// DeleteTag deletes a tag. Tags with descendants cannot be deleted; detach
// or delete the children first. Absence of the tag is a result, not an
// error.
func (s *Store) DeleteTag(ctx context.Context, tagID string) (store.DeleteResult, error) {
	var descendants int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tag_paths
		WHERE ancestor_id = ? AND distance > 0`, tagID).Scan(&descendants)
	if err != nil {
		return store.DeleteResult{}, err
	}
	if descendants > 0 {
		return store.DeleteResult{}, store.ErrInvalidInput.WithMessage("tag has children")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, tagID)
	if err != nil {
		return store.DeleteResult{}, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return store.DeleteResult{}, err
	}
	return store.DeleteResult{Deleted: n > 0, Affected: n}, nil
}
