package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelkeep/reelkeep/internal/models"
)

func reviewRowsFixture(n int) []*models.ImportRow {
	rows := make([]*models.ImportRow, n)
	for i := range rows {
		rows[i] = &models.ImportRow{RowNumber: i + 1}
	}
	return rows
}

func TestCollectReviewRowsSinglePage(t *testing.T) {
	all := reviewRowsFixture(3)
	calls := 0

	rows, err := collectReviewRows(func(limit, offset int) ([]*models.ImportRow, int, error) {
		calls++
		return all, len(all), nil
	})

	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, calls)
}

func TestCollectReviewRowsSpansPages(t *testing.T) {
	// More rows than one page so the pager has to keep going.
	all := reviewRowsFixture(1203)

	rows, err := collectReviewRows(func(limit, offset int) ([]*models.ImportRow, int, error) {
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], len(all), nil
	})

	require.NoError(t, err)
	require.Len(t, rows, 1203)
	assert.Equal(t, 1, rows[0].RowNumber)
	assert.Equal(t, 1203, rows[1202].RowNumber)
}

func TestCollectReviewRowsStopsOnEmptyPage(t *testing.T) {
	// A fetcher whose reported total overshoots what it can deliver must not
	// loop forever.
	calls := 0
	rows, err := collectReviewRows(func(limit, offset int) ([]*models.ImportRow, int, error) {
		calls++
		if offset > 0 {
			return nil, 9999, nil
		}
		return reviewRowsFixture(2), 9999, nil
	})

	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, calls)
}

func TestCollectReviewRowsPropagatesError(t *testing.T) {
	boom := errors.New("db down")
	_, err := collectReviewRows(func(limit, offset int) ([]*models.ImportRow, int, error) {
		return nil, 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
