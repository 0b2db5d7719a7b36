// Package store defines the persistence contracts for the Curio catalog.
package store

import (
	"context"

	"github.com/curioapp/curio-server/internal/domain"
)

// MediaStore is the catalog's persistence surface, consumed by the
// application layer.
type MediaStore interface {
	// Lifecycle
	Close() error

	// Media queries. All shapes share the keyset contract documented on
	// Page; GetMediaByIDs is unbounded (callers scope via the id set).
	GetMediaByIDs(ctx context.Context, ids []string, opts LoadOptions) ([]*domain.Medium, error)
	GetMediaBySourceIDs(ctx context.Context, sourceIDs []string, page Page, opts LoadOptions) ([]*domain.Medium, error)
	GetMediaByTagPairs(ctx context.Context, pairs []domain.TagPair, page Page, opts LoadOptions) ([]*domain.Medium, error)
	ListMedia(ctx context.Context, page Page, opts LoadOptions) ([]*domain.Medium, error)

	// Media mutations. Each runs in one transaction; any failure rolls the
	// whole operation back.
	CreateMedium(ctx context.Context, params CreateMediumParams) (*domain.Medium, error)
	UpdateMedium(ctx context.Context, params UpdateMediumParams) (*domain.Medium, error)
	DeleteMedium(ctx context.Context, id string) (DeleteResult, error)

	// External services
	CreateExternalService(ctx context.Context, svc *domain.ExternalService) error
	ListExternalServices(ctx context.Context) ([]*domain.ExternalService, error)

	// Sources
	CreateSource(ctx context.Context, params CreateSourceParams) (*domain.Source, error)
	GetSource(ctx context.Context, id string) (*domain.Source, error)

	// Replicas
	CreateReplica(ctx context.Context, params CreateReplicaParams) (*domain.Replica, error)
	GetReplica(ctx context.Context, id string) (*domain.Replica, error)

	// Tags and tag types
	CreateTagType(ctx context.Context, tt *domain.TagType) error
	ListTagTypes(ctx context.Context) ([]*domain.TagType, error)
	CreateTag(ctx context.Context, params CreateTagParams) (*domain.Tag, error)
	GetTag(ctx context.Context, id string, depth domain.TagDepth) (*domain.Tag, error)
	DeleteTag(ctx context.Context, id string) (DeleteResult, error)
}
