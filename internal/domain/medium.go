// Package domain defines the catalog's core entities: media and the tags,
// sources, and replicas composed onto them.
package domain

import "time"

// Medium is the root aggregate: one cataloged item.
//
// The ID is opaque and immutable. Sources, Tags, and Replicas are filled by
// the store's eager-loading per request; a nil slice means the category was
// not requested, an empty slice means it was requested and the medium has
// no related rows.
type Medium struct {
	ID        string     `json:"id"`
	Sources   []*Source  `json:"sources,omitempty"`
	Tags      []TagGroup `json:"tags,omitempty"`
	Replicas  []*Replica `json:"replicas,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (m *Medium) Touch() {
	m.UpdatedAt = time.Now()
}

// TagIDs returns the ids of all tags attached to the medium, across groups,
// in group order. Duplicate ids appear once per (tag, type) attachment.
func (m *Medium) TagIDs() []string {
	var ids []string
	for _, g := range m.Tags {
		for _, t := range g.Tags {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// SourceIDs returns the ids of the medium's sources in load order.
func (m *Medium) SourceIDs() []string {
	ids := make([]string, len(m.Sources))
	for i, s := range m.Sources {
		ids[i] = s.ID
	}
	return ids
}
