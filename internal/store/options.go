package store

import "github.com/curioapp/curio-server/internal/domain"

// LoadOptions selects which related collections are composed onto fetched
// media. The zero value loads bare media rows only.
type LoadOptions struct {
	// TagDepth enables tag loading and bounds hierarchy resolution.
	// Nil skips tags entirely.
	TagDepth *domain.TagDepth

	// WithReplicas loads each medium's ordered replica list.
	WithReplicas bool

	// WithSources loads each medium's source list with decoded metadata.
	WithSources bool
}

// WithTags returns options loading tags to the given depths.
func WithTags(parentDepth, childDepth int) LoadOptions {
	return LoadOptions{TagDepth: &domain.TagDepth{Parent: parentDepth, Child: childDepth}}
}

// WithEverything returns options loading all three categories, tags to the
// given depths.
func WithEverything(parentDepth, childDepth int) LoadOptions {
	opts := WithTags(parentDepth, childDepth)
	opts.WithReplicas = true
	opts.WithSources = true
	return opts
}
