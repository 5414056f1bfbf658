package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mtreharne/focusbeat/internal/biofeedback"
	"github.com/mtreharne/focusbeat/internal/client/oura"
	"github.com/mtreharne/focusbeat/internal/profile"
	"github.com/mtreharne/focusbeat/internal/xerrors"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

const (
	warnNotConfigured     = "wearable integration is not configured"
	warnNotConnected      = "no wearable connected; visit /auth/start to connect"
	warnReconnectRequired = "wearable authorization expired; reconnect to resume biofeedback"
	warnRateLimited       = "wearable provider is throttling requests; data will catch up shortly"
	warnPartialData       = "wearable provider returned partial data"
)

// Collections is the vendor read surface the service depends on.
type Collections interface {
	HeartRate(ctx context.Context, userID string, focusStart *time.Time) ([]oura.Row, error)
	DailyStress(ctx context.Context, userID string) (oura.Row, error)
}

// Revoker drops a credential that the vendor no longer honors.
type Revoker interface {
	Revoke(ctx context.Context, userID string) error
}

// Service assembles the biofeedback read: vendor collections, the
// aggregated summary, and the learned profile, degraded but never
// failing.
type Service struct {
	configured  bool
	collections Collections
	revoker     Revoker
	profiles    profile.Store
	logger      *slog.Logger
}

func New(configured bool, collections Collections, revoker Revoker, profiles profile.Store, logger *slog.Logger) *Service {
	return &Service{
		configured:  configured,
		collections: collections,
		revoker:     revoker,
		profiles:    profiles,
		logger:      logger,
	}
}

// Response is the metrics payload. It is always well-formed: absent
// data shows as empty fields plus a warning, never as an error status.
type Response struct {
	Connected   bool                       `json:"connected"`
	Samples     []biofeedback.Sample       `json:"heart_rate_samples"`
	LatestBpm   *float64                   `json:"latest_heart_rate,omitempty"`
	LatestAt    string                     `json:"latest_heart_rate_time,omitempty"`
	RollingBpm  float64                    `json:"rolling_bpm"`
	Stress      *biofeedback.StressBuckets `json:"stress_today,omitempty"`
	Profile     *profile.Profile           `json:"profile,omitempty"`
	Warning     string                     `json:"warning,omitempty"`
	RateLimited bool                       `json:"rate_limited,omitempty"`
}

// Read gathers everything the timer UI needs for one polling window.
// Collection failures degrade to empty sections; only the OAuth
// lifecycle can flip the response to disconnected.
func (s *Service) Read(ctx context.Context, userID string, focusStart *time.Time) Response {
	if !s.configured {
		return Response{Samples: []biofeedback.Sample{}, Warning: warnNotConfigured}
	}

	resp := Response{Connected: true, Samples: []biofeedback.Sample{}}

	heartRows, err := s.collections.HeartRate(ctx, userID, focusStart)
	if disconnected := s.absorb(ctx, userID, "heartrate", err, &resp); disconnected {
		return resp
	}

	stressRow, err := s.collections.DailyStress(ctx, userID)
	if disconnected := s.absorb(ctx, userID, "daily_stress", err, &resp); disconnected {
		return resp
	}

	summary := biofeedback.Summarize(heartRows, stressRow)
	resp.Samples = summary.Samples
	if summary.Latest != nil {
		resp.LatestBpm = &summary.Latest.Bpm
		resp.LatestAt = summary.Latest.Timestamp
	}
	resp.RollingBpm = summary.Rolling
	resp.Stress = summary.Stress

	if p, err := s.profiles.Get(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "loading profile", xslog.UserID(userID), xslog.Error(err))
	} else {
		resp.Profile = &p
	}

	return resp
}

// absorb folds one collection's failure into the response. Reports true
// when the connection itself is dead and the read should stop.
func (s *Service) absorb(ctx context.Context, userID, collection string, err error, resp *Response) bool {
	switch {
	case err == nil:
		return false

	case errors.Is(err, xerrors.ErrNotConfigured):
		*resp = Response{Samples: []biofeedback.Sample{}, Warning: warnNotConfigured}
		return true

	case errors.Is(err, xerrors.ErrNotConnected):
		*resp = Response{Samples: []biofeedback.Sample{}, Warning: warnNotConnected}
		return true

	case errors.Is(err, xerrors.ErrAuthExpired):
		// the refresh grant is dead; drop the credential so the user is
		// prompted to reconnect instead of silently polling forever
		if rerr := s.revoker.Revoke(ctx, userID); rerr != nil {
			s.logger.ErrorContext(ctx, "revoking expired credential",
				xslog.UserID(userID), xslog.Error(rerr))
		}
		*resp = Response{Samples: []biofeedback.Sample{}, Warning: warnReconnectRequired}
		return true

	case xerrors.IsRateLimited(err):
		resp.RateLimited = true
		resp.Warning = warnRateLimited
		s.logger.WarnContext(ctx, "vendor throttling",
			xslog.UserID(userID), xslog.Collection(collection))
		return false

	default:
		resp.Warning = warnPartialData
		s.logger.WarnContext(ctx, "collection fetch degraded",
			xslog.UserID(userID), xslog.Collection(collection), xslog.Error(err))
		return false
	}
}
