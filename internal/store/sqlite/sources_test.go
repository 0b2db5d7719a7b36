package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/store"
)

func TestCreateExternalService(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	svc := &domain.ExternalService{Slug: domain.SlugPixiv, Name: "Pixiv"}
	require.NoError(t, s.CreateExternalService(ctx, svc))
	assert.NotEmpty(t, svc.ID)

	err := s.CreateExternalService(ctx, &domain.ExternalService{Slug: domain.SlugPixiv, Name: "Again"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestListExternalServices_OrderedBySlug(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	seedService(t, s, domain.SlugWebsite)
	seedService(t, s, domain.SlugPixiv)
	seedService(t, s, domain.SlugX)

	services, err := s.ListExternalServices(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 3)
	assert.Equal(t, domain.SlugPixiv, services[0].Slug)
	assert.Equal(t, domain.SlugWebsite, services[1].Slug)
	assert.Equal(t, domain.SlugX, services[2].Slug)
}

func TestCreateSource_MetadataRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		slug     string
		metadata domain.ExternalMetadata
	}{
		{domain.SlugPixiv, domain.PixivMetadata{PostID: 12345}},
		{domain.SlugX, domain.XMetadata{PostID: 67890, Creator: "someone"}},
		{domain.SlugWebsite, domain.WebsiteMetadata{URL: "https://example.com/a"}},
		{"booth", domain.CustomMetadata{"item": "b-100", "shop": "someshop"}},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			svc := seedService(t, s, tt.slug)

			created, err := s.CreateSource(ctx, store.CreateSourceParams{
				ExternalServiceID: svc.ID,
				Metadata:          tt.metadata,
			})
			require.NoError(t, err)

			got, err := s.GetSource(ctx, created.ID)
			require.NoError(t, err)
			assert.Equal(t, svc.Slug, got.ExternalService.Slug)
			assert.Equal(t, tt.metadata, got.Metadata)
		})
	}
}

func TestCreateSource_UnknownService(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.CreateSource(context.Background(), store.CreateSourceParams{
		ExternalServiceID: "no-such-service",
		Metadata:          domain.PixivMetadata{PostID: 1},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateSource_NilMetadata(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	svc := seedService(t, s, domain.SlugPixiv)

	_, err := s.CreateSource(context.Background(), store.CreateSourceParams{
		ExternalServiceID: svc.ID,
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestGetSource_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetSource(context.Background(), "no-such-source")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetSource_CorruptMetadata(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	svc := seedService(t, s, domain.SlugPixiv)
	src := seedSource(t, s, svc, 1)

	// Payload no longer matches the service's shape.
	_, err := s.db.ExecContext(ctx,
		`UPDATE sources SET external_metadata = ? WHERE id = ?`,
		`{"unexpected": true}`, src.ID)
	require.NoError(t, err)

	_, err = s.GetSource(ctx, src.ID)
	assert.ErrorIs(t, err, store.ErrDeserialize)
}

func TestGetSource_CorruptMetadataSurfacesInBatchLoad(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	svc := seedService(t, s, domain.SlugPixiv)
	src := seedSource(t, s, svc, 1)
	m, err := s.CreateMedium(ctx, store.CreateMediumParams{SourceIDs: []string{src.ID}})
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx,
		`UPDATE sources SET external_metadata = ? WHERE id = ?`, `not json`, src.ID)
	require.NoError(t, err)

	_, err = s.GetMediaByIDs(ctx, []string{m.ID}, store.LoadOptions{WithSources: true})
	assert.ErrorIs(t, err, store.ErrDeserialize)
}
