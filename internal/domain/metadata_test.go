package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExternalMetadataRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		slug string
		meta ExternalMetadata
	}{
		{"pixiv", SlugPixiv, PixivMetadata{PostID: 56736941}},
		{"x", SlugX, XMetadata{PostID: 727620202049900544, Creator: "magodesu"}},
		{"website", SlugWebsite, WebsiteMetadata{URL: "https://example.com/gallery/1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeExternalMetadata(tc.meta)
			require.NoError(t, err)

			got, err := DecodeExternalMetadata(tc.slug, data)
			require.NoError(t, err)
			assert.Equal(t, tc.meta, got)
			assert.Equal(t, tc.slug, got.ServiceSlug())
		})
	}
}

func TestDecodeExternalMetadata_ShapeMismatch(t *testing.T) {
	// A pixiv payload read back under the x slug carries no creator_id and
	// must be rejected rather than silently zero-filled.
	data, err := EncodeExternalMetadata(XMetadata{PostID: 1, Creator: "someone"})
	require.NoError(t, err)

	_, err = DecodeExternalMetadata(SlugPixiv, data)
	assert.Error(t, err)
}

func TestDecodeExternalMetadata_InvalidJSON(t *testing.T) {
	_, err := DecodeExternalMetadata(SlugWebsite, []byte("{"))
	assert.Error(t, err)

	_, err = DecodeExternalMetadata("unknown-service", []byte("{"))
	assert.Error(t, err)
}

func TestDecodeExternalMetadata_UnknownServiceUsesCustom(t *testing.T) {
	got, err := DecodeExternalMetadata("skeb", []byte(`{"path":"@someone/works/5"}`))
	require.NoError(t, err)

	m, ok := got.(CustomMetadata)
	require.True(t, ok, "expected CustomMetadata, got %T", got)
	assert.Equal(t, "@someone/works/5", m["path"])
}
