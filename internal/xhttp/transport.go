package xhttp

import (
	"fmt"
	"net/http"

	"github.com/mtreharne/focusbeat/internal/version"
)

type focusbeatTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*focusbeatTransport)(nil)

func (t *focusbeatTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "focusbeat/"+version.Get())
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// NewTransport returns an http.RoundTripper with standard focusbeat headers.
func NewTransport() http.RoundTripper {
	return &focusbeatTransport{base: http.DefaultTransport}
}
