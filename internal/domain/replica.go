package domain

import "time"

// Replica is one physical copy of a medium's content.
//
// A replica belongs to exactly one medium for its lifetime. DisplayOrder is
// nil for unordered replicas; when a medium is fully ordered the non-nil
// values are unique and contiguous 1..N.
type Replica struct {
	ID           string    `json:"id"`
	MediumID     string    `json:"medium_id"`
	DisplayOrder *int      `json:"display_order,omitempty"`
	HasThumbnail bool      `json:"has_thumbnail"`
	OriginalURL  string    `json:"original_url"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (r *Replica) Touch() {
	r.UpdatedAt = time.Now()
}

// Ordered reports whether the replica has a display position.
func (r *Replica) Ordered() bool {
	return r.DisplayOrder != nil
}
