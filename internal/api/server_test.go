package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondPaginatedHeaders(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()

	s.respondPaginated(rec, 200, []string{}, 2, 50, 120, "/api/v1/movies")

	assert.Equal(t, "120", rec.Header().Get("X-Total-Count"))
	link := rec.Header().Get("Link")
	assert.Contains(t, link, `</api/v1/movies?page=1&page_size=50>; rel="first"`)
	assert.Contains(t, link, `</api/v1/movies?page=3&page_size=50>; rel="last"`)
	assert.Contains(t, link, `</api/v1/movies?page=3&page_size=50>; rel="next"`)
	assert.Contains(t, link, `</api/v1/movies?page=1&page_size=50>; rel="prev"`)
}

func TestRespondPaginatedEdgePages(t *testing.T) {
	s := &Server{}

	// First page has no prev link.
	rec := httptest.NewRecorder()
	s.respondPaginated(rec, 200, []string{}, 1, 50, 120, "/api/v1/movies")
	assert.NotContains(t, rec.Header().Get("Link"), `rel="prev"`)
	assert.Contains(t, rec.Header().Get("Link"), `rel="next"`)

	// Last page has no next link.
	rec = httptest.NewRecorder()
	s.respondPaginated(rec, 200, []string{}, 3, 50, 120, "/api/v1/movies")
	assert.Contains(t, rec.Header().Get("Link"), `rel="prev"`)
	assert.NotContains(t, rec.Header().Get("Link"), `rel="next"`)

	// Empty result set still yields a well-formed header.
	rec = httptest.NewRecorder()
	s.respondPaginated(rec, 200, []string{}, 1, 50, 0, "/api/v1/movies")
	assert.Equal(t, "0", rec.Header().Get("X-Total-Count"))
	assert.Contains(t, rec.Header().Get("Link"), `</api/v1/movies?page=1&page_size=50>; rel="last"`)
}

func TestRespondPaginatedExistingQueryString(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()

	s.respondPaginated(rec, 200, []string{}, 1, 25, 60, "/api/v1/import/review?severity=medium")

	assert.Contains(t, rec.Header().Get("Link"), `</api/v1/import/review?severity=medium&page=2&page_size=25>; rel="next"`)
}
