package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mtreharne/focusbeat/internal/client/oura"
	"github.com/mtreharne/focusbeat/internal/xerrors"
	"golang.org/x/oauth2"
)

func newFetcher(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	clients := func(string) *oura.Client {
		return oura.New(
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
			oura.WithBaseURL(srv.URL),
			oura.WithLogger(slog.New(slog.DiscardHandler)),
		)
	}
	return NewFetcher(clients, slog.New(slog.DiscardHandler))
}

func writePage(w http.ResponseWriter, rows []string, nextToken string) {
	w.Header().Set("Content-Type", "application/json")
	body := `{"data":[`
	for i, row := range rows {
		if i > 0 {
			body += ","
		}
		body += row
	}
	body += `]`
	if nextToken != "" {
		body += `,"next_token":"` + nextToken + `"`
	}
	body += `}`
	_, _ = w.Write([]byte(body))
}

func TestHeartRatePaginationUnionPreservesOrder(t *testing.T) {
	t.Parallel()

	pages := map[string][]string{
		"": {
			`{"bpm":70,"timestamp":"2026-08-24T10:00:00+00:00"}`,
			`{"bpm":71,"timestamp":"2026-08-24T10:00:05+00:00"}`,
		},
		"p2": {`{"bpm":72,"timestamp":"2026-08-24T10:00:10+00:00"}`},
		"p3": {`{"bpm":73,"timestamp":"2026-08-24T10:00:15+00:00"}`},
	}
	next := map[string]string{"": "p2", "p2": "p3", "p3": ""}

	f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("next_token")
		writePage(w, pages[token], next[token])
	}))

	rows, err := f.HeartRate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}

	var got []float64
	for _, row := range rows {
		got = append(got, row["bpm"].(float64))
	}
	want := []float64{70, 71, 72, 73}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bpm order mismatch (-want +got):\n%s", diff)
	}
}

func TestHeartRatePageCeilingStopsFetching(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		// always promise another page
		writePage(w, []string{fmt.Sprintf(`{"bpm":%d,"timestamp":"2026-08-24T10:00:00+00:00"}`, 60+n)}, "more")
	}))

	rows, err := f.HeartRate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}

	if n := requests.Load(); n != pageCeiling {
		t.Errorf("made %d requests, want %d", n, pageCeiling)
	}
	if len(rows) != pageCeiling {
		t.Errorf("got %d rows, want %d", len(rows), pageCeiling)
	}
}

func TestHeartRateEmptyPrimaryWindowFallsBackToSevenDays(t *testing.T) {
	t.Parallel()

	var starts []time.Time
	f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start_datetime"))
		if err != nil {
			t.Errorf("unparseable start_datetime: %v", err)
		}
		starts = append(starts, start)

		// empty primary window, populated fallback window
		if time.Since(start) < 48*time.Hour {
			writePage(w, nil, "")
			return
		}
		writePage(w, []string{`{"bpm":64,"timestamp":"2026-08-20T10:00:00+00:00"}`}, "")
	}))

	rows, err := f.HeartRate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}

	if len(starts) != 2 {
		t.Fatalf("made %d windowed requests, want 2", len(starts))
	}
	if age := time.Since(starts[0]); age > 25*time.Hour {
		t.Errorf("primary window start %v too old", starts[0])
	}
	if age := time.Since(starts[1]); age < 6*24*time.Hour {
		t.Errorf("fallback window start %v too recent", starts[1])
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows from fallback, want 1", len(rows))
	}
}

func TestHeartRateWindowExtendsBeforeFocusStart(t *testing.T) {
	t.Parallel()

	focusStart := time.Now().Add(-30 * time.Hour)

	var gotStart time.Time
	f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStart, _ = time.Parse(time.RFC3339, r.URL.Query().Get("start_datetime"))
		writePage(w, []string{`{"bpm":64,"timestamp":"2026-08-24T10:00:00+00:00"}`}, "")
	}))

	if _, err := f.HeartRate(context.Background(), "user-1", &focusStart); err != nil {
		t.Fatalf("HeartRate() error = %v", err)
	}

	wantStart := focusStart.Add(-preFocusLead)
	if diff := gotStart.Sub(wantStart); diff < -time.Second || diff > time.Second {
		t.Errorf("window start = %v, want %v", gotStart, wantStart)
	}
}

func TestDailyStressSameDayWindowNoFallback(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		today := time.Now().Format("2006-01-02")
		if got := r.URL.Query().Get("start_date"); got != today {
			t.Errorf("start_date = %q, want %q", got, today)
		}
		if got := r.URL.Query().Get("end_date"); got != today {
			t.Errorf("end_date = %q, want %q", got, today)
		}
		writePage(w, nil, "")
	}))

	row, err := f.DailyStress(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DailyStress() error = %v", err)
	}
	if row != nil {
		t.Errorf("DailyStress() = %v, want nil for empty window", row)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("made %d requests, want 1 (no fallback)", n)
	}
}

func TestFetchErrorClassification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, want: xerrors.ErrAuthExpired},
		{name: "forbidden", status: http.StatusForbidden, want: xerrors.ErrAuthExpired},
		{name: "throttled", status: http.StatusTooManyRequests, want: xerrors.ErrRateLimited},
		{name: "server error", status: http.StatusInternalServerError, want: xerrors.ErrVendorUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, want: xerrors.ErrVendorUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"detail":"nope"}`))
			}))

			_, err := f.HeartRate(context.Background(), "user-1", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("HeartRate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
