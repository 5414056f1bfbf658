package xerrors

import "errors"

// Integration failure classes. Token values must never appear in any of
// these messages or their wrapping chains.
var (
	// ErrNotConfigured means the vendor client credentials are absent.
	// The integration reports "not configured" rather than failing.
	ErrNotConfigured = errors.New("wearable integration not configured")

	// ErrNotConnected means the user has no stored vendor credential.
	ErrNotConnected = errors.New("wearable not connected")

	// ErrAuthExpired means a refresh failed irrecoverably. Callers revoke
	// the stored credential so the user is prompted to reconnect.
	ErrAuthExpired = errors.New("wearable authorization expired")

	// ErrVendorUnavailable means a single collection fetch failed. The
	// affected signal degrades to empty; the read as a whole continues.
	ErrVendorUnavailable = errors.New("wearable vendor unavailable")

	// ErrRateLimited means the vendor throttled us. Pollers back off;
	// users never see this directly.
	ErrRateLimited = errors.New("wearable vendor rate limited")
)

func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	if e := As(err); e != nil && e.StatusCode == 429 {
		return true
	}
	return false
}
