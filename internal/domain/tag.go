package domain

import "time"

// Tag is a hierarchical label attachable to media.
//
// Tags form a tree. Parent and Children are filled to a caller-chosen depth
// by the store's tag resolver; a bare tag (depth zero) has both unset.
// Parent chain entries never carry Children, and subtree entries never carry
// a Parent, so a resolved tag is always acyclic.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kana      string    `json:"kana"`
	Aliases   []string  `json:"aliases"`
	Parent    *Tag      `json:"parent,omitempty"`
	Children  []*Tag    `json:"children,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// Ancestors returns the resolved parent chain from nearest to furthest.
func (t *Tag) Ancestors() []*Tag {
	var chain []*Tag
	for p := t.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}
	return chain
}

// TagType partitions tags into categories (e.g. character, work, clothes).
// Its id is the ordering key when grouping a medium's tags.
type TagType struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// TagGroup is one type's ordered tag list on a medium. A medium's Tags field
// holds groups ordered by type id ascending; within a group tags are ordered
// by tag id ascending.
type TagGroup struct {
	Type TagType `json:"type"`
	Tags []*Tag  `json:"tags"`
}

// TagPair is one tag predicate: a medium matches when it carries the tag, or
// any descendant of it, under the given type.
type TagPair struct {
	TagID     string `json:"tag_id" validate:"required"`
	TagTypeID string `json:"tag_type_id" validate:"required"`
}

// TagDepth bounds how far the tag resolver walks the hierarchy.
// Parent bounds the single-parent chain, Child the descendant subtree.
type TagDepth struct {
	Parent int `json:"parent" validate:"min=0"`
	Child  int `json:"child" validate:"min=0"`
}
