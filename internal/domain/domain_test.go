package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"load", LoadImages},
		{"REFRESH", RefreshImages},
		{" load_more ", LoadMoreImages},
		{"more", LoadMoreImages},
	}
	for _, tt := range tests {
		got, err := ParseIntent(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.NotEmpty(t, got.String())
	}

	_, err := ParseIntent("delete")
	assert.Error(t, err)
}

func TestPageRequest_Validate(t *testing.T) {
	assert.NoError(t, NewPageRequest(10, 0).Validate())
	assert.NoError(t, PageRequest{Limit: 5}.Validate())
	assert.Error(t, NewPageRequest(0, 0).Validate())
	assert.Error(t, NewPageRequest(10, -1).Validate())

	// Page is ignored when the request is not paged.
	assert.NoError(t, PageRequest{Limit: 5, Page: -3}.Validate())

	assert.Equal(t, DefaultPageSize, PageRequest{}.Normalize().Limit)
	assert.Equal(t, 3, PageRequest{Limit: 3}.Normalize().Limit)
}

func TestGalleryState_CloneIsIndependent(t *testing.T) {
	s := NewGalleryState()
	assert.Equal(t, NoPage, s.CurrentPage)
	assert.True(t, s.CanLoadMore)

	s.Images = append(s.Images, CatImage{ID: "1", URL: "u1"})
	c := s.Clone()
	c.Images[0].ID = "changed"

	assert.Equal(t, "1", s.Images[0].ID)
}

func TestOutcome_IsTerminal(t *testing.T) {
	assert.False(t, Loading().IsTerminal())
	assert.True(t, Success(nil).IsTerminal())
	assert.True(t, Failed("boom").IsTerminal())
	assert.Equal(t, "error", Failed("boom").Kind.String())
}
