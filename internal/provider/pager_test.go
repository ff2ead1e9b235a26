package provider

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-recap/internal/activity"
)

var testWindow = activity.Window{
	Start: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC),
}

func makeRecords(n int, from time.Time) []activity.Record {
	out := make([]activity.Record, n)
	for i := range out {
		out[i] = activity.Record{
			ID:        fmt.Sprintf("%d", from.Unix()+int64(i)),
			Type:      "Run",
			StartTime: from.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestPaginateOffsetFullPageFetchesAgain(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 3}
	var pages []int

	records, n, err := p.Paginate(context.Background(), testWindow, func(_ context.Context, req PageRequest) ([]activity.Record, error) {
		pages = append(pages, req.Page)
		assert.Equal(t, testWindow.Start, req.Oldest)
		assert.Equal(t, testWindow.End, req.Newest)
		if req.Page == 1 {
			return makeRecords(3, testWindow.Start), nil
		}
		return makeRecords(1, testWindow.Start.Add(72*time.Hour)), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, pages)
	assert.Equal(t, 2, n)
	assert.Len(t, records, 4)
}

func TestPaginateEmptyPageStops(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 2}
	calls := 0

	records, _, err := p.Paginate(context.Background(), testWindow, func(_ context.Context, req PageRequest) ([]activity.Record, error) {
		calls++
		if req.Page == 1 {
			return makeRecords(2, testWindow.Start), nil
		}
		return nil, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, records, 2)
}

func TestPaginateNoActivitiesIsEmptyNotNil(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 2}

	records, _, err := p.Paginate(context.Background(), testWindow, func(context.Context, PageRequest) ([]activity.Record, error) {
		return nil, nil
	})

	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestPaginateFailureDiscardsEarlierPages(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 2}

	records, _, err := p.Paginate(context.Background(), testWindow, func(_ context.Context, req PageRequest) ([]activity.Record, error) {
		if req.Page == 1 {
			return makeRecords(2, testWindow.Start), nil
		}
		return nil, &Error{Kind: KindAuthExpired, Provider: Strava}
	})

	assert.True(t, IsAuthExpired(err))
	assert.Nil(t, records)
}

func TestPaginatePageCeiling(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 1, MaxPages: 4}
	calls := 0

	records, n, err := p.Paginate(context.Background(), testWindow, func(_ context.Context, req PageRequest) ([]activity.Record, error) {
		calls++
		return makeRecords(1, testWindow.Start.Add(time.Duration(req.Page)*time.Hour)), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, n)
	assert.Len(t, records, 4)
}

func TestPaginateCursorAdvancesOldest(t *testing.T) {
	p := &Pager{Provider: Intervals, Style: CursorPages, PageSize: 2}
	var oldest []time.Time

	first := testWindow.Start.Add(2 * time.Hour)
	_, n, err := p.Paginate(context.Background(), testWindow, func(_ context.Context, req PageRequest) ([]activity.Record, error) {
		oldest = append(oldest, req.Oldest)
		if len(oldest) == 1 {
			return makeRecords(2, first), nil
		}
		return makeRecords(1, req.Oldest.Add(time.Hour)), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, oldest, 2)
	assert.Equal(t, testWindow.Start, oldest[0])
	assert.Equal(t, first.Add(time.Hour+time.Second), oldest[1])
}

func TestPaginateCursorStopsPastNewest(t *testing.T) {
	p := &Pager{Provider: Intervals, Style: CursorPages, PageSize: 2}
	calls := 0

	records, _, err := p.Paginate(context.Background(), testWindow, func(context.Context, PageRequest) ([]activity.Record, error) {
		calls++
		return makeRecords(2, testWindow.End.Add(-time.Hour)), nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, records, 2)
}

func TestPaginateRejectsInvertedWindow(t *testing.T) {
	p := &Pager{Provider: Strava, Style: OffsetPages, PageSize: 2}
	called := false

	_, _, err := p.Paginate(context.Background(), activity.Window{Start: testWindow.End, End: testWindow.Start}, func(context.Context, PageRequest) ([]activity.Record, error) {
		called = true
		return nil, nil
	})

	assert.Equal(t, KindUnexpected, KindOf(err))
	assert.False(t, called)
}
