package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageParams(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/journals", nil)
		page, limit := ParsePageParams(r)
		assert.Equal(t, 1, page)
		assert.Equal(t, 20, limit)
	})

	t.Run("explicit values", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/journals?page=3&limit=50", nil)
		page, limit := ParsePageParams(r)
		assert.Equal(t, 3, page)
		assert.Equal(t, 50, limit)
	})

	t.Run("limit capped", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/journals?limit=1000", nil)
		_, limit := ParsePageParams(r)
		assert.Equal(t, 100, limit)
	})

	t.Run("garbage ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/journals?page=-2&limit=abc", nil)
		page, limit := ParsePageParams(r)
		assert.Equal(t, 1, page)
		assert.Equal(t, 20, limit)
	})
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 20, 45)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(3, 20, 45)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(1, 20, 0)
	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}
