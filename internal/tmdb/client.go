package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	posterBase     = "https://image.tmdb.org/t/p/w500"
	backdropBase   = "https://image.tmdb.org/t/p/w1280"
)

// tmdbGenreMap maps TMDB genre IDs to human-readable names (movies).
var tmdbGenreMap = map[int]string{
	28: "Action", 12: "Adventure", 16: "Animation", 35: "Comedy", 80: "Crime",
	99: "Documentary", 18: "Drama", 10751: "Family", 14: "Fantasy", 36: "History",
	27: "Horror", 10402: "Music", 9648: "Mystery", 10749: "Romance",
	878: "Science Fiction", 10770: "TV Movie", 53: "Thriller", 10752: "War", 37: "Western",
}

// SearchResult is one entry from a TMDB movie search.
type SearchResult struct {
	TMDBID        int      `json:"tmdb_id"`
	Title         string   `json:"title"`
	OriginalTitle *string  `json:"original_title,omitempty"`
	Year          *int     `json:"year,omitempty"`
	Overview      *string  `json:"overview,omitempty"`
	PosterURL     *string  `json:"poster_url,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Genres        []string `json:"genres,omitempty"`
}

// Details is the full movie record fetched with credits appended.
type Details struct {
	TMDBID          int      `json:"tmdb_id"`
	IMDBID          *string  `json:"imdb_id,omitempty"`
	Title           string   `json:"title"`
	OriginalTitle   *string  `json:"original_title,omitempty"`
	Year            *int     `json:"year,omitempty"`
	ReleaseDate     *string  `json:"release_date,omitempty"`
	Overview        *string  `json:"overview,omitempty"`
	Tagline         *string  `json:"tagline,omitempty"`
	PosterURL       *string  `json:"poster_url,omitempty"`
	BackdropURL     *string  `json:"backdrop_url,omitempty"`
	Genres          []string `json:"genres,omitempty"`
	RuntimeMinutes  *int     `json:"runtime_minutes,omitempty"`
	Director        *string  `json:"director,omitempty"`
	ContentRating   *string  `json:"content_rating,omitempty"`
	CommunityRating *float64 `json:"community_rating,omitempty"`
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *Cache
}

// NewClient creates a TMDB API client. cache may be nil to disable caching.
func NewClient(apiKey string, cache *Cache) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type searchResponse struct {
	Results []struct {
		ID            int     `json:"id"`
		Title         string  `json:"title"`
		OriginalTitle string  `json:"original_title"`
		Overview      string  `json:"overview"`
		PosterPath    string  `json:"poster_path"`
		ReleaseDate   string  `json:"release_date"`
		VoteAverage   float64 `json:"vote_average"`
		GenreIDs      []int   `json:"genre_ids"`
	} `json:"results"`
}

// Search queries TMDB for movies. If a year is given and returns nothing,
// the search is retried without the year constraint — CSV exports routinely
// carry the wrong release year for re-releases.
func (c *Client) Search(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured")
	}

	results, err := c.search(ctx, query, year)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 && year != nil && *year > 0 {
		results, err = c.search(ctx, query, nil)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (c *Client) search(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	cacheKey := searchCacheKey(query, year)
	if c.cache != nil {
		var cached []SearchResult
		if ok := c.cache.Get(ctx, cacheKey, &cached); ok {
			return cached, nil
		}
	}

	reqURL := fmt.Sprintf("%s/search/movie?api_key=%s&query=%s",
		c.baseURL, c.apiKey, url.QueryEscape(query))
	if year != nil && *year > 0 {
		reqURL += fmt.Sprintf("&year=%d", *year)
	}

	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, r := range resp.Results {
		sr := SearchResult{
			TMDBID: r.ID,
			Title:  r.Title,
			Year:   yearFromDate(r.ReleaseDate),
		}
		if r.OriginalTitle != "" && r.OriginalTitle != r.Title {
			orig := r.OriginalTitle
			sr.OriginalTitle = &orig
		}
		if r.Overview != "" {
			o := r.Overview
			sr.Overview = &o
		}
		if r.PosterPath != "" {
			p := posterBase + r.PosterPath
			sr.PosterURL = &p
		}
		if r.VoteAverage > 0 {
			v := r.VoteAverage
			sr.Rating = &v
		}
		for _, gid := range r.GenreIDs {
			if name, ok := tmdbGenreMap[gid]; ok {
				sr.Genres = append(sr.Genres, name)
			}
		}
		results = append(results, sr)
	}

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, results)
	}
	return results, nil
}

type releaseDateCountry struct {
	ISO31661     string `json:"iso_3166_1"`
	ReleaseDates []struct {
		Certification string `json:"certification"`
	} `json:"release_dates"`
}

// GetDetails fetches a movie with credits in a single call via
// append_to_response, halving the number of requests per import row.
func (c *Client) GetDetails(ctx context.Context, tmdbID int) (*Details, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured")
	}

	cacheKey := fmt.Sprintf("tmdb:movie:%d", tmdbID)
	if c.cache != nil {
		var cached Details
		if ok := c.cache.Get(ctx, cacheKey, &cached); ok {
			return &cached, nil
		}
	}

	reqURL := fmt.Sprintf("%s/movie/%d?api_key=%s&append_to_response=credits,release_dates",
		c.baseURL, tmdbID, c.apiKey)

	var r struct {
		ID            int     `json:"id"`
		IMDBId        string  `json:"imdb_id"`
		Title         string  `json:"title"`
		OriginalTitle string  `json:"original_title"`
		Overview      string  `json:"overview"`
		Tagline       string  `json:"tagline"`
		PosterPath    string  `json:"poster_path"`
		BackdropPath  string  `json:"backdrop_path"`
		ReleaseDate   string  `json:"release_date"`
		Runtime       int     `json:"runtime"`
		VoteAverage   float64 `json:"vote_average"`
		Genres        []struct {
			Name string `json:"name"`
		} `json:"genres"`
		Credits struct {
			Crew []struct {
				Name string `json:"name"`
				Job  string `json:"job"`
			} `json:"crew"`
		} `json:"credits"`
		ReleaseDates struct {
			Results []releaseDateCountry `json:"results"`
		} `json:"release_dates"`
	}
	if err := c.getJSON(ctx, reqURL, &r); err != nil {
		return nil, err
	}

	d := &Details{
		TMDBID: r.ID,
		Title:  r.Title,
		Year:   yearFromDate(r.ReleaseDate),
	}
	if r.IMDBId != "" {
		d.IMDBID = &r.IMDBId
	}
	if r.OriginalTitle != "" && r.OriginalTitle != r.Title {
		d.OriginalTitle = &r.OriginalTitle
	}
	if r.ReleaseDate != "" {
		d.ReleaseDate = &r.ReleaseDate
	}
	if r.Overview != "" {
		d.Overview = &r.Overview
	}
	if r.Tagline != "" {
		d.Tagline = &r.Tagline
	}
	if r.PosterPath != "" {
		p := posterBase + r.PosterPath
		d.PosterURL = &p
	}
	if r.BackdropPath != "" {
		b := backdropBase + r.BackdropPath
		d.BackdropURL = &b
	}
	if r.Runtime > 0 {
		d.RuntimeMinutes = &r.Runtime
	}
	if r.VoteAverage > 0 {
		d.CommunityRating = &r.VoteAverage
	}
	for _, g := range r.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	for _, crew := range r.Credits.Crew {
		if crew.Job == "Director" {
			name := crew.Name
			d.Director = &name
			break
		}
	}
	d.ContentRating = extractUSCertification(r.ReleaseDates.Results)

	if c.cache != nil {
		c.cache.Set(ctx, cacheKey, d)
	}
	return d, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("TMDB request returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// extractUSCertification returns the US MPAA certification (e.g. "PG-13")
// from the release_dates response. Returns nil if not found.
func extractUSCertification(countries []releaseDateCountry) *string {
	for _, c := range countries {
		if c.ISO31661 == "US" {
			for _, rd := range c.ReleaseDates {
				if rd.Certification != "" {
					cert := rd.Certification
					return &cert
				}
			}
		}
	}
	return nil
}

func yearFromDate(date string) *int {
	if len(date) < 4 {
		return nil
	}
	y := 0
	if _, err := fmt.Sscanf(date[:4], "%d", &y); err != nil || y == 0 {
		return nil
	}
	return &y
}

func searchCacheKey(query string, year *int) string {
	if year != nil {
		return fmt.Sprintf("tmdb:search:%s:%d", query, *year)
	}
	return "tmdb:search:" + query
}
