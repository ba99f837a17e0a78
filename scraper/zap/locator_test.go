package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateFindsListings(t *testing.T) {
	raws, err := NewLocator().Locate([]byte(statePage(listingsJSON("a", "b", "c"))))
	require.NoError(t, err)
	require.Len(t, raws, 3)

	listing, ok := raws[1]["listing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b", listing["id"])
}

func TestLocateEmptyListingsIsValid(t *testing.T) {
	raws, err := NewLocator().Locate([]byte(statePage("[]")))
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestLocateSkipsNonObjectEntries(t *testing.T) {
	page := statePage(`[{"listing":{"id":"a"}}, "ad-slot", null, 7, {"listing":{"id":"b"}}]`)
	raws, err := NewLocator().Locate([]byte(page))
	require.NoError(t, err)
	require.Len(t, raws, 2)

	second, ok := raws[1]["listing"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b", second["id"])
}

func TestLocateWithoutCleanupScript(t *testing.T) {
	page := `<html><body><script>window.__INITIAL_STATE__={"results":{"listings":[{"listing":{"id":"x"}}]}};</script></body></html>`
	raws, err := NewLocator().Locate([]byte(page))
	require.NoError(t, err)
	assert.Len(t, raws, 1)
}

func TestLocateMissingMarker(t *testing.T) {
	page := `<html><body><div class="card-container">legacy</div><script>var x = 1;</script></body></html>`
	_, err := NewLocator().Locate([]byte(page))
	assert.True(t, errors.Is(err, ErrPayloadNotFound))
}

func TestLocateMalformed(t *testing.T) {
	tests := []struct {
		name string
		page string
	}{
		{"bad json", `<script>window.__INITIAL_STATE__={"results":{"listings":[</script>`},
		{"no results", `<script>window.__INITIAL_STATE__={"page":{}}</script>`},
		{"no listings", `<script>window.__INITIAL_STATE__={"results":{"totalCount":0}}</script>`},
		{"null listings", `<script>window.__INITIAL_STATE__={"results":{"listings":null}}</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocator().Locate([]byte(tt.page))
			assert.ErrorIs(t, err, ErrPayloadMalformed)
		})
	}
}

func TestTrimPayload(t *testing.T) {
	got := trimPayload(`window.__INITIAL_STATE__={"a":1};(function(){var s;}());`)
	assert.Equal(t, `{"a":1}`, got)
}
