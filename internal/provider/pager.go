package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"activity-recap/internal/activity"
	"activity-recap/internal/metrics"
)

// DefaultMaxPages is the hard page ceiling that guards against pagination bugs
const DefaultMaxPages = 50

// PageStyle selects how the next page is requested
type PageStyle int

const (
	// OffsetPages increments a page index and resends the same bounds
	OffsetPages PageStyle = iota
	// CursorPages advances the oldest bound past the latest record seen
	CursorPages
)

// PageRequest describes one page to fetch
type PageRequest struct {
	Page   int // 1-based
	Oldest time.Time
	Newest time.Time
	Size   int
}

// PageFunc fetches a single page
type PageFunc func(ctx context.Context, req PageRequest) ([]activity.Record, error)

// Pager drives a sequential, one-page-in-flight fetch loop
type Pager struct {
	Provider ID
	Style    PageStyle
	PageSize int
	MaxPages int
	Logger   *slog.Logger
}

// Paginate fetches pages until a short or empty page, or the page ceiling.
// The first failure aborts the loop and discards every record gathered so
// far. It returns the records and the number of pages requested.
func (p *Pager) Paginate(ctx context.Context, window activity.Window, fetch PageFunc) ([]activity.Record, int, error) {
	if p.PageSize < 1 {
		return nil, 0, Unexpected(p.Provider, metrics.OpListActivities, fmt.Errorf("invalid page size %d", p.PageSize))
	}
	if err := window.Validate(); err != nil {
		return nil, 0, Unexpected(p.Provider, metrics.OpListActivities, err)
	}

	maxPages := p.MaxPages
	if maxPages < 1 {
		maxPages = DefaultMaxPages
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	req := PageRequest{Page: 1, Oldest: window.Start, Newest: window.End, Size: p.PageSize}
	var all []activity.Record
	pages := 0

	for {
		if pages >= maxPages {
			logger.Warn("page ceiling reached",
				"provider", p.Provider,
				"max_pages", maxPages,
				"activities", len(all))
			break
		}

		batch, err := fetch(ctx, req)
		pages++
		if err != nil {
			metrics.ProviderFetchFailuresTotal.WithLabelValues(string(p.Provider), string(KindOf(err))).Inc()
			return nil, pages, err
		}

		all = append(all, batch...)
		if len(batch) < p.PageSize {
			break
		}

		switch p.Style {
		case OffsetPages:
			req.Page++
		case CursorPages:
			latest := req.Oldest
			for _, r := range batch {
				if r.StartTime.After(latest) {
					latest = r.StartTime
				}
			}
			next := latest.Add(time.Second)
			if next.After(req.Newest) {
				return finish(p.Provider, all, pages), pages, nil
			}
			req.Oldest = next
			req.Page++
		}
	}

	return finish(p.Provider, all, pages), pages, nil
}

func finish(id ID, all []activity.Record, pages int) []activity.Record {
	metrics.ProviderFetchPages.WithLabelValues(string(id)).Observe(float64(pages))
	if all == nil {
		return []activity.Record{}
	}
	return all
}
