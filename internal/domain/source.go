package domain

import "time"

// ExternalService is a site or app that media originate from.
// Services are referenced by sources, never owned by them.
type ExternalService struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Source links media to one post on an external service, carrying that
// service's metadata payload. A source row is shared by reference across
// media via the media_sources junction; it is never owned by a medium.
type Source struct {
	ID              string           `json:"id"`
	ExternalService ExternalService  `json:"external_service"`
	Metadata        ExternalMetadata `json:"external_metadata"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (s *Source) Touch() {
	s.UpdatedAt = time.Now()
}
