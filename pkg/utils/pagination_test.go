package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, DefaultPerPage},
		{"explicit", "page=3&per_page=25", 3, 25},
		{"clamped", "per_page=1000", 1, MaxPerPage},
		{"zero falls back", "page=0&per_page=0", 1, DefaultPerPage},
		{"garbage falls back", "page=abc&per_page=-5", 1, DefaultPerPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)

			page, perPage := PageParams(query)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 1, CalculateTotalPages(10, 10))
	assert.Equal(t, 2, CalculateTotalPages(11, 10))
	assert.Equal(t, 0, CalculateTotalPages(5, 0))
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))
}

func TestHashCode_RoundTrip(t *testing.T) {
	code := GenerateConfirmationCode()

	hash, err := HashCode(code)
	assert.NoError(t, err)
	assert.NotEqual(t, code, hash)
	assert.True(t, CheckCodeHash(code, hash))
	assert.False(t, CheckCodeHash("wrong", hash))
}
