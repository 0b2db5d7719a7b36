package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/store"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath, nil, store.DefaultPageLimits())
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

// Fixture helpers. All go through the public API so the schema stays an
// implementation detail.

func seedService(t *testing.T, s *Store, slug string) *domain.ExternalService {
	t.Helper()
	svc := &domain.ExternalService{Slug: slug, Name: slug}
	require.NoError(t, s.CreateExternalService(context.Background(), svc))
	return svc
}

func seedTagType(t *testing.T, s *Store, slug string) *domain.TagType {
	t.Helper()
	tt := &domain.TagType{Slug: slug, Name: slug}
	require.NoError(t, s.CreateTagType(context.Background(), tt))
	return tt
}

func seedTag(t *testing.T, s *Store, name, parentID string) *domain.Tag {
	t.Helper()
	tag, err := s.CreateTag(context.Background(), store.CreateTagParams{
		Name:     name,
		Kana:     name,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return tag
}

func seedSource(t *testing.T, s *Store, svc *domain.ExternalService, postID int64) *domain.Source {
	t.Helper()
	var metadata domain.ExternalMetadata
	switch svc.Slug {
	case domain.SlugPixiv:
		metadata = domain.PixivMetadata{PostID: postID}
	case domain.SlugX:
		metadata = domain.XMetadata{PostID: postID, Creator: "creator"}
	case domain.SlugWebsite:
		metadata = domain.WebsiteMetadata{URL: fmt.Sprintf("https://example.com/%d", postID)}
	default:
		metadata = domain.CustomMetadata{"post": postID}
	}
	src, err := s.CreateSource(context.Background(), store.CreateSourceParams{
		ExternalServiceID: svc.ID,
		Metadata:          metadata,
	})
	require.NoError(t, err)
	return src
}

func seedMedium(t *testing.T, s *Store, createdAt time.Time, sourceIDs []string, pairs []domain.TagPair) *domain.Medium {
	t.Helper()
	m, err := s.CreateMedium(context.Background(), store.CreateMediumParams{
		SourceIDs: sourceIDs,
		TagPairs:  pairs,
		CreatedAt: &createdAt,
	})
	require.NoError(t, err)
	return m
}

func seedReplica(t *testing.T, s *Store, mediumID string, order *int) *domain.Replica {
	t.Helper()
	r, err := s.CreateReplica(context.Background(), store.CreateReplicaParams{
		MediumID:     mediumID,
		DisplayOrder: order,
		HasThumbnail: order != nil && *order == 1,
		OriginalURL:  "https://cdn.example.com/" + mediumID + ".png",
		MimeType:     "image/png",
	})
	require.NoError(t, err)
	return r
}

func intPtr(v int) *int { return &v }

func TestOpen_CreatesSchema(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	tables := []string{
		"media", "sources", "media_sources", "external_services",
		"tags", "tag_paths", "tag_types", "media_tags", "replicas",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(dbPath, nil, store.DefaultPageLimits())
	require.NoError(t, err)
	seedService(t, s, "pixiv")
	require.NoError(t, s.Close())

	// Schema application is idempotent; data survives reopen.
	s, err = Open(dbPath, nil, store.DefaultPageLimits())
	require.NoError(t, err)
	defer s.Close()

	services, err := s.ListExternalServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "pixiv", services[0].Slug)
}

func TestTimeRoundTrip_FixedWidth(t *testing.T) {
	// Stored form must be fixed-width so string comparison matches
	// chronological comparison, including times with zero nanoseconds.
	whole := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fractional := time.Date(2026, 3, 1, 12, 0, 0, 500_000_000, time.UTC)

	assert.Len(t, formatTime(whole), len(formatTime(fractional)))
	assert.True(t, formatTime(whole) < formatTime(fractional))

	parsed, err := parseTime(formatTime(fractional))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(fractional))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?,?,?", placeholders(3))
}
