package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curioapp/curio-server/internal/store"
)

func TestCreateReplica(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	m := seedMedium(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)

	created, err := s.CreateReplica(ctx, store.CreateReplicaParams{
		MediumID:     m.ID,
		DisplayOrder: intPtr(1),
		HasThumbnail: true,
		OriginalURL:  "https://cdn.example.com/a.png",
		MimeType:     "image/png",
	})
	require.NoError(t, err)

	got, err := s.GetReplica(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.MediumID)
	require.NotNil(t, got.DisplayOrder)
	assert.Equal(t, 1, *got.DisplayOrder)
	assert.True(t, got.HasThumbnail)
	assert.Equal(t, "https://cdn.example.com/a.png", got.OriginalURL)
	assert.Equal(t, "image/png", got.MimeType)
}

func TestCreateReplica_PositionTaken(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	m := seedMedium(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)
	seedReplica(t, s, m.ID, intPtr(1))

	_, err := s.CreateReplica(context.Background(), store.CreateReplicaParams{
		MediumID:     m.ID,
		DisplayOrder: intPtr(1),
		OriginalURL:  "https://cdn.example.com/b.png",
		MimeType:     "image/png",
	})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestCreateReplica_UnorderedAllowed(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	m := seedMedium(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)

	// Several replicas may share the unordered state.
	a := seedReplica(t, s, m.ID, nil)
	b := seedReplica(t, s, m.ID, nil)

	gotA, err := s.GetReplica(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, gotA.DisplayOrder)

	gotB, err := s.GetReplica(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gotB.DisplayOrder)
}

func TestCreateReplica_Validation(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.CreateReplica(ctx, store.CreateReplicaParams{
		MediumID: "", OriginalURL: "https://x", MimeType: "image/png",
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)

	m := seedMedium(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)
	_, err = s.CreateReplica(ctx, store.CreateReplicaParams{
		MediumID: m.ID, DisplayOrder: intPtr(0),
		OriginalURL: "https://x", MimeType: "image/png",
	})
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestGetReplica_NotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetReplica(context.Background(), "no-such-replica")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadMediaReplicas_UnorderedLast(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	m := seedMedium(t, s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, nil)
	unordered := seedReplica(t, s, m.ID, nil)
	second := seedReplica(t, s, m.ID, intPtr(2))
	first := seedReplica(t, s, m.ID, intPtr(1))

	got, err := s.GetMediaByIDs(ctx, []string{m.ID}, store.LoadOptions{WithReplicas: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Replicas, 3)

	// Ordered replicas by position, unordered trailing.
	assert.Equal(t, first.ID, got[0].Replicas[0].ID)
	assert.Equal(t, second.ID, got[0].Replicas[1].ID)
	assert.Equal(t, unordered.ID, got[0].Replicas[2].ID)
}
