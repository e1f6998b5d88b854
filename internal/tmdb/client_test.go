package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", nil)
	c.SetBaseURL(srv.URL)
	return c
}

func TestSearchParsesResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "The Matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1999", r.URL.Query().Get("year"))
		w.Write([]byte(`{"results":[{
			"id": 603,
			"title": "The Matrix",
			"original_title": "The Matrix",
			"overview": "A computer hacker learns...",
			"poster_path": "/abc.jpg",
			"release_date": "1999-03-30",
			"vote_average": 8.2,
			"genre_ids": [28, 878]
		}]}`))
	})

	year := 1999
	results, err := c.Search(context.Background(), "The Matrix", &year)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 603, r.TMDBID)
	assert.Equal(t, "The Matrix", r.Title)
	assert.Nil(t, r.OriginalTitle) // same as title, omitted
	require.NotNil(t, r.Year)
	assert.Equal(t, 1999, *r.Year)
	require.NotNil(t, r.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", *r.PosterURL)
	assert.Equal(t, []string{"Action", "Science Fiction"}, r.Genres)
}

func TestSearchYearFallback(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Query().Get("year"))
		if r.URL.Query().Get("year") != "" {
			w.Write([]byte(`{"results":[]}`))
			return
		}
		w.Write([]byte(`{"results":[{"id": 496243, "title": "Parasite", "release_date": "2019-05-30"}]}`))
	})

	year := 2020
	results, err := c.Search(context.Background(), "Parasite", &year)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 496243, results[0].TMDBID)
	// First call carries the year, the retry drops it.
	assert.Equal(t, []string{"2020", ""}, calls)
}

func TestSearchWithoutAPIKey(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.Search(context.Background(), "anything", nil)
	assert.Error(t, err)
}

func TestGetDetailsExtractsDirectorAndCertification(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/496243", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("append_to_response"), "credits")
		w.Write([]byte(`{
			"id": 496243,
			"imdb_id": "tt6751668",
			"title": "Parasite",
			"original_title": "기생충",
			"overview": "All unemployed...",
			"release_date": "2019-05-30",
			"runtime": 132,
			"vote_average": 8.5,
			"genres": [{"name": "Comedy"}, {"name": "Thriller"}],
			"credits": {"crew": [
				{"name": "Han Jin-won", "job": "Screenplay"},
				{"name": "Bong Joon-ho", "job": "Director"}
			]},
			"release_dates": {"results": [
				{"iso_3166_1": "KR", "release_dates": [{"certification": "15"}]},
				{"iso_3166_1": "US", "release_dates": [{"certification": "R"}]}
			]}
		}`))
	})

	d, err := c.GetDetails(context.Background(), 496243)
	require.NoError(t, err)
	assert.Equal(t, "Parasite", d.Title)
	require.NotNil(t, d.OriginalTitle)
	assert.Equal(t, "기생충", *d.OriginalTitle)
	require.NotNil(t, d.Director)
	assert.Equal(t, "Bong Joon-ho", *d.Director)
	require.NotNil(t, d.ContentRating)
	assert.Equal(t, "R", *d.ContentRating)
	require.NotNil(t, d.RuntimeMinutes)
	assert.Equal(t, 132, *d.RuntimeMinutes)
	require.NotNil(t, d.Year)
	assert.Equal(t, 2019, *d.Year)
}

func TestGetDetailsNon200(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.GetDetails(context.Background(), 1)
	assert.Error(t, err)
}
