// Package main provides a tool to seed the catalog with test data.
//
// It creates the external services, a small tag tree, and a batch of media
// with sources, tags, and replicas so queries and pagination can be
// exercised against realistic data.
//
// Usage:
//
//	DATABASE_PATH=~/Curio/catalog.db go run ./cmd/seed
//	DATABASE_PATH=~/Curio/catalog.db go run ./cmd/seed --media 200
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/curioapp/curio-server/internal/di"
	"github.com/curioapp/curio-server/internal/domain"
	"github.com/curioapp/curio-server/internal/store"
)

var mediaCount = flag.Int("media", 50, "Number of media to create")

func main() {
	injector := di.NewContainer()
	log, err := di.Bootstrap(injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer injector.Shutdown() //nolint:errcheck // Best-effort cleanup

	s := do.MustInvoke[*di.StoreHandle](injector).Store

	ctx := context.Background()

	services, err := seedServices(ctx, s)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed services")
	}

	tagTypes, tags, err := seedTags(ctx, s)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed tags")
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	for i := 0; i < *mediaCount; i++ {
		if err := seedMedium(ctx, s, rng, services, tagTypes, tags, i); err != nil {
			log.WithError(err).WithField("index", i).Error("Failed to seed medium")
			continue
		}
		created++
	}

	log.Info("Seed complete",
		"media", created,
		"services", len(services),
		"tag_types", len(tagTypes),
		"tags", len(tags),
	)
}

func seedServices(ctx context.Context, s store.MediaStore) ([]*domain.ExternalService, error) {
	want := []*domain.ExternalService{
		{Slug: domain.SlugPixiv, Name: "Pixiv"},
		{Slug: domain.SlugX, Name: "X"},
		{Slug: domain.SlugWebsite, Name: "Website"},
	}

	for _, svc := range want {
		err := s.CreateExternalService(ctx, svc)
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return nil, err
		}
	}
	return s.ListExternalServices(ctx)
}

func seedTags(ctx context.Context, s store.MediaStore) ([]*domain.TagType, []*domain.Tag, error) {
	want := []*domain.TagType{
		{Slug: "character", Name: "Character"},
		{Slug: "work", Name: "Work"},
		{Slug: "rating", Name: "Rating"},
	}

	for _, tt := range want {
		err := s.CreateTagType(ctx, tt)
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return nil, nil, err
		}
	}

	tagTypes, err := s.ListTagTypes(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Two-level tree: each root gets a couple of children.
	roots := []string{"fantasy", "scifi", "slice-of-life"}
	var tags []*domain.Tag
	for _, rootName := range roots {
		root, err := s.CreateTag(ctx, store.CreateTagParams{Name: rootName, Kana: rootName})
		if err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				continue
			}
			return nil, nil, err
		}
		tags = append(tags, root)

		for i := 1; i <= 2; i++ {
			child, err := s.CreateTag(ctx, store.CreateTagParams{
				Name:     fmt.Sprintf("%s-sub%d", rootName, i),
				Kana:     fmt.Sprintf("%s-sub%d", rootName, i),
				ParentID: root.ID,
			})
			if err != nil {
				return nil, nil, err
			}
			tags = append(tags, child)
		}
	}
	return tagTypes, tags, nil
}

func seedMedium(
	ctx context.Context,
	s store.MediaStore,
	rng *rand.Rand,
	services []*domain.ExternalService,
	tagTypes []*domain.TagType,
	tags []*domain.Tag,
	n int,
) error {
	svc := services[rng.Intn(len(services))]

	var metadata domain.ExternalMetadata
	switch svc.Slug {
	case domain.SlugPixiv:
		metadata = domain.PixivMetadata{PostID: int64(100000 + n)}
	case domain.SlugX:
		metadata = domain.XMetadata{PostID: int64(200000 + n), Creator: fmt.Sprintf("creator%d", n%7)}
	default:
		metadata = domain.WebsiteMetadata{URL: fmt.Sprintf("https://example.com/page/%d", n)}
	}

	source, err := s.CreateSource(ctx, store.CreateSourceParams{
		ExternalServiceID: svc.ID,
		Metadata:          metadata,
	})
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	var pairs []domain.TagPair
	if len(tags) > 0 && len(tagTypes) > 0 {
		tag := tags[rng.Intn(len(tags))]
		tagType := tagTypes[rng.Intn(len(tagTypes))]
		pairs = append(pairs, domain.TagPair{TagID: tag.ID, TagTypeID: tagType.ID})
	}

	// Spread created_at over the past 30 days so pagination is meaningful.
	createdAt := time.Now().UTC().Add(-time.Duration(rng.Intn(30*24)) * time.Hour)

	medium, err := s.CreateMedium(ctx, store.CreateMediumParams{
		SourceIDs: []string{source.ID},
		TagPairs:  pairs,
		CreatedAt: &createdAt,
	})
	if err != nil {
		return fmt.Errorf("create medium: %w", err)
	}

	numReplicas := 1 + rng.Intn(3)
	replicaIDs := make([]string, 0, numReplicas)
	for r := 0; r < numReplicas; r++ {
		order := r + 1
		replica, err := s.CreateReplica(ctx, store.CreateReplicaParams{
			MediumID:     medium.ID,
			DisplayOrder: &order,
			HasThumbnail: r == 0,
			OriginalURL:  fmt.Sprintf("https://cdn.example.com/%s/%d.png", medium.ID, r),
			MimeType:     "image/png",
		})
		if err != nil {
			return fmt.Errorf("create replica: %w", err)
		}
		replicaIDs = append(replicaIDs, replica.ID)
	}

	// Occasionally reverse the replica order to exercise reordering.
	if numReplicas > 1 && rng.Float32() < 0.3 {
		for i, j := 0, len(replicaIDs)-1; i < j; i, j = i+1, j-1 {
			replicaIDs[i], replicaIDs[j] = replicaIDs[j], replicaIDs[i]
		}
		_, err := s.UpdateMedium(ctx, store.UpdateMediumParams{
			ID:           medium.ID,
			ReplicaOrder: replicaIDs,
		})
		if err != nil {
			return fmt.Errorf("reorder replicas: %w", err)
		}
	}

	return nil
}
