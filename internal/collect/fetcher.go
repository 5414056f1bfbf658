package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtreharne/focusbeat/internal/client/oura"
	"github.com/mtreharne/focusbeat/internal/xerrors"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

const (
	// pageCeiling bounds the pagination loop against a misbehaving or
	// chatty vendor API.
	pageCeiling = 25

	pageSize = 50

	// primaryWindow tolerates the vendor's sync latency: wearables
	// upload in batches, not in real time.
	primaryWindow  = 24 * time.Hour
	fallbackWindow = 7 * 24 * time.Hour

	// preFocusLead extends the window back past the focus start so the
	// session baseline has material to work with.
	preFocusLead = 2 * time.Hour
)

// ClientFor returns a vendor client authenticated as the given user.
type ClientFor func(userID string) *oura.Client

// Fetcher retrieves time-windowed vendor collections with pagination
// and window-fallback strategies.
type Fetcher struct {
	clients ClientFor
	logger  *slog.Logger
}

func NewFetcher(clients ClientFor, logger *slog.Logger) *Fetcher {
	return &Fetcher{clients: clients, logger: logger}
}

// HeartRate fetches heart-rate rows for the last 24 hours, extended
// back to two hours before focusStart when that is earlier. A window
// that yields zero samples falls back to the last 7 days before giving
// up.
func (f *Fetcher) HeartRate(ctx context.Context, userID string, focusStart *time.Time) ([]oura.Row, error) {
	client := f.clients(userID)
	now := time.Now()

	start := now.Add(-primaryWindow)
	if focusStart != nil {
		if lead := focusStart.Add(-preFocusLead); lead.Before(start) {
			start = lead
		}
	}

	rows, err := f.paginate(ctx, "heartrate", client.HeartRate.List, &oura.ListParams{
		Limit:         pageSize,
		StartDatetime: &start,
		EndDatetime:   &now,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	fallbackStart := now.Add(-fallbackWindow)
	f.logger.DebugContext(ctx, "primary heart-rate window empty, falling back",
		xslog.UserID(userID),
		xslog.Start(fallbackStart))

	return f.paginate(ctx, "heartrate", client.HeartRate.List, &oura.ListParams{
		Limit:         pageSize,
		StartDatetime: &fallbackStart,
		EndDatetime:   &now,
	})
}

// DailyStress fetches today's stress summary. No fallback: the vendor
// computes stress summaries server-side once per day.
func (f *Fetcher) DailyStress(ctx context.Context, userID string) (oura.Row, error) {
	client := f.clients(userID)
	today := time.Now()

	rows, err := f.paginate(ctx, "daily_stress", client.DailyStress.List, &oura.ListParams{
		Limit:     pageSize,
		StartDate: &today,
		EndDate:   &today,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[len(rows)-1], nil
}

type listFunc func(ctx context.Context, params *oura.ListParams) (*oura.PaginatedResponse[oura.Row], error)

func (f *Fetcher) paginate(ctx context.Context, collection string, list listFunc, params *oura.ListParams) ([]oura.Row, error) {
	var all []oura.Row

	for page := 0; page < pageCeiling; page++ {
		select {
		case <-ctx.Done():
			return nil, mapErr(ctx.Err())
		default:
		}

		resp, err := list(ctx, params)
		if err != nil {
			return nil, mapErr(err)
		}

		all = append(all, resp.Data...)

		if !resp.HasMore() {
			return all, nil
		}
		params.NextToken = resp.NextToken
	}

	f.logger.WarnContext(ctx, "page ceiling reached, truncating collection",
		xslog.Collection(collection),
		xslog.Pages(pageCeiling),
		xslog.Count(len(all)))
	return all, nil
}

// mapErr classifies vendor failures so callers can escalate auth
// problems, back off on throttling, and degrade everything else to an
// empty signal.
func mapErr(err error) error {
	var apiErr *oura.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.IsAuthError():
			return fmt.Errorf("%w: vendor rejected access token", xerrors.ErrAuthExpired)
		case apiErr.IsRateLimited():
			return xerrors.ErrRateLimited
		default:
			return fmt.Errorf("%w: %s", xerrors.ErrVendorUnavailable, apiErr.Error())
		}
	}

	if errors.Is(err, xerrors.ErrNotConnected) || errors.Is(err, xerrors.ErrAuthExpired) {
		return err
	}

	return fmt.Errorf("%w: %s", xerrors.ErrVendorUnavailable, err)
}
