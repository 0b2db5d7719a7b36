package domain

import (
	"encoding/json/v2"
	"fmt"
)

// Service slugs with a dedicated metadata shape.
const (
	SlugPixiv   = "pixiv"
	SlugX       = "x"
	SlugWebsite = "website"
)

// ExternalMetadata is the service-specific payload stored on a source row.
// The concrete shape is keyed by the owning external service's slug.
type ExternalMetadata interface {
	// ServiceSlug names the service family this payload belongs to.
	ServiceSlug() string
}

// PixivMetadata identifies a pixiv artwork post.
type PixivMetadata struct {
	PostID int64 `json:"id"`
}

// ServiceSlug implements ExternalMetadata.
func (PixivMetadata) ServiceSlug() string { return SlugPixiv }

// XMetadata identifies an X (Twitter) post. Post URLs need the creator
// handle as well as the numeric id, so both are stored.
type XMetadata struct {
	PostID  int64  `json:"id"`
	Creator string `json:"creator_id"`
}

// ServiceSlug implements ExternalMetadata.
func (XMetadata) ServiceSlug() string { return SlugX }

// WebsiteMetadata points at an arbitrary web page.
type WebsiteMetadata struct {
	URL string `json:"url"`
}

// ServiceSlug implements ExternalMetadata.
func (WebsiteMetadata) ServiceSlug() string { return SlugWebsite }

// CustomMetadata carries payloads for services without a dedicated shape.
type CustomMetadata map[string]any

// ServiceSlug implements ExternalMetadata.
func (CustomMetadata) ServiceSlug() string { return "custom" }

// EncodeExternalMetadata serializes a payload for storage on a source row.
func EncodeExternalMetadata(m ExternalMetadata) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal external metadata: %w", err)
	}
	return data, nil
}

// DecodeExternalMetadata deserializes a stored payload. The service slug
// selects the expected shape; services without a dedicated shape decode as
// CustomMetadata. Decoding is strict: a payload whose members do not match
// the service's shape is an error.
func DecodeExternalMetadata(serviceSlug string, raw []byte) (ExternalMetadata, error) {
	switch serviceSlug {
	case SlugPixiv:
		var m PixivMetadata
		if err := json.Unmarshal(raw, &m, json.RejectUnknownMembers(true)); err != nil {
			return nil, fmt.Errorf("unmarshal %s metadata: %w", serviceSlug, err)
		}
		return m, nil
	case SlugX:
		var m XMetadata
		if err := json.Unmarshal(raw, &m, json.RejectUnknownMembers(true)); err != nil {
			return nil, fmt.Errorf("unmarshal %s metadata: %w", serviceSlug, err)
		}
		return m, nil
	case SlugWebsite:
		var m WebsiteMetadata
		if err := json.Unmarshal(raw, &m, json.RejectUnknownMembers(true)); err != nil {
			return nil, fmt.Errorf("unmarshal %s metadata: %w", serviceSlug, err)
		}
		return m, nil
	default:
		var m CustomMetadata
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal custom metadata for %s: %w", serviceSlug, err)
		}
		return m, nil
	}
}
