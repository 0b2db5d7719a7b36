package store

import (
	"time"

	"github.com/curioapp/curio-server/internal/domain"
)

// CreateMediumParams describes one medium creation.
//
// SourceIDs and TagPairs must reference existing rows; both may be empty.
// CreatedAt overrides the insertion timestamp when set (imports backdate
// media to their original post dates). Replicas are always empty on a
// freshly created medium regardless of Load.WithReplicas.
type CreateMediumParams struct {
	SourceIDs []string         `validate:"dive,required"`
	TagPairs  []domain.TagPair `validate:"dive"`
	CreatedAt *time.Time
	Load      LoadOptions
}

// UpdateMediumParams describes one medium update.
//
// Adds are idempotent (re-adding an existing link is a no-op), removes
// delete matching links only. A non-empty ReplicaOrder must be exactly
// set-equal to the medium's current replica ids; on success the listed
// replicas are assigned display positions 1..N in the given order.
type UpdateMediumParams struct {
	ID              string           `validate:"required"`
	AddSourceIDs    []string         `validate:"dive,required"`
	RemoveSourceIDs []string         `validate:"dive,required"`
	AddTagPairs     []domain.TagPair `validate:"dive"`
	RemoveTagPairs  []domain.TagPair `validate:"dive"`
	ReplicaOrder    []string         `validate:"dive,required"`
	CreatedAt       *time.Time
	Load            LoadOptions
}

// CreateSourceParams describes one source creation.
type CreateSourceParams struct {
	ExternalServiceID string `validate:"required"`
	Metadata          domain.ExternalMetadata
}

// CreateReplicaParams describes one replica creation.
type CreateReplicaParams struct {
	MediumID     string `validate:"required"`
	DisplayOrder *int   `validate:"omitempty,min=1"`
	HasThumbnail bool
	OriginalURL  string `validate:"required"`
	MimeType     string `validate:"required"`
}

// CreateTagParams describes one tag creation. ParentID, when set, places the
// tag under an existing tag in the hierarchy.
type CreateTagParams struct {
	Name     string `validate:"required"`
	Kana     string
	Aliases  []string `validate:"dive,required"`
	ParentID string
}

// DeleteResult reports the outcome of a delete. Absence of the target is a
// result, not an error: callers inspect Deleted instead of catching
// ErrNotFound.
type DeleteResult struct {
	Deleted  bool
	Affected int64
}
