package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/reelkeep/reelkeep/internal/models"
	"github.com/reelkeep/reelkeep/internal/repository"
	"github.com/reelkeep/reelkeep/internal/tmdb"
)

// Applier turns a matched import row into a canonical movie plus the row's
// personal annotations. Used by the background import worker for
// high-confidence rows and by the approval dashboard when a human picks a
// candidate.
type Applier struct {
	tmdb      *tmdb.Client
	movieRepo *repository.MovieRepository
	watchRepo *repository.WatchRepository
	tagRepo   *repository.TagRepository
}

func NewApplier(client *tmdb.Client, movieRepo *repository.MovieRepository,
	watchRepo *repository.WatchRepository, tagRepo *repository.TagRepository) *Applier {
	return &Applier{tmdb: client, movieRepo: movieRepo, watchRepo: watchRepo, tagRepo: tagRepo}
}

// MovieFromDetails maps a TMDB details record onto the canonical movie model.
func MovieFromDetails(details *tmdb.Details) *models.Movie {
	return &models.Movie{
		TMDBID:          details.TMDBID,
		IMDBID:          details.IMDBID,
		Title:           details.Title,
		OriginalTitle:   details.OriginalTitle,
		Year:            details.Year,
		ReleaseDate:     details.ReleaseDate,
		Overview:        details.Overview,
		Tagline:         details.Tagline,
		PosterURL:       details.PosterURL,
		BackdropURL:     details.BackdropURL,
		Genres:          pq.StringArray(details.Genres),
		RuntimeMinutes:  details.RuntimeMinutes,
		Director:        details.Director,
		ContentRating:   details.ContentRating,
		CommunityRating: details.CommunityRating,
	}
}

// Apply fetches full TMDB details for tmdbID, upserts the movie, and attaches
// the row's rating, tags, and watch entry for userID. Annotation failures
// after the movie exists are reported but do not roll the movie back; a
// re-run upsert is idempotent.
func (a *Applier) Apply(ctx context.Context, userID uuid.UUID, row *models.ImportRow, tmdbID int) (*models.Movie, error) {
	details, err := a.tmdb.GetDetails(ctx, tmdbID)
	if err != nil {
		return nil, fmt.Errorf("fetch details for tmdb %d: %w", tmdbID, err)
	}

	movie := MovieFromDetails(details)
	if err := a.movieRepo.UpsertByTMDBID(movie); err != nil {
		return nil, fmt.Errorf("upsert movie: %w", err)
	}

	if row.Rating != nil {
		if err := a.movieRepo.SetRating(userID, movie.ID, *row.Rating); err != nil {
			return movie, fmt.Errorf("set rating: %w", err)
		}
	}

	for _, name := range row.Tags {
		tag, err := a.tagRepo.Ensure(userID, name)
		if err != nil {
			return movie, fmt.Errorf("ensure tag %q: %w", name, err)
		}
		if err := a.tagRepo.AssignToMovie(tag.ID, movie.ID); err != nil {
			return movie, fmt.Errorf("assign tag %q: %w", name, err)
		}
	}

	if row.WatchedAt != nil {
		entry := &models.WatchEntry{
			UserID:    userID,
			MovieID:   movie.ID,
			WatchedAt: *row.WatchedAt,
		}
		if err := a.watchRepo.Create(entry); err != nil {
			return movie, fmt.Errorf("create watch entry: %w", err)
		}
	}

	return movie, nil
}
