package oura

import (
	"net/http"
	"strconv"
	"time"
)

// RateLimitInfo contains parsed rate limit information from the vendor's
// response headers. Oura allows 5000 requests per 5-minute window.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Duration
}

const (
	// Header keys use canonical form (http.CanonicalHeaderKey)
	limitHeaderKey     = "X-Ratelimit-Limit"
	remainingHeaderKey = "X-Ratelimit-Remaining"
	resetHeaderKey     = "X-Ratelimit-Reset"
)

func ParseRateLimitHeaders(headers http.Header) (*RateLimitInfo, error) {
	var (
		limitStr     = headers.Get(limitHeaderKey)
		remainingStr = headers.Get(remainingHeaderKey)
		resetStr     = headers.Get(resetHeaderKey)
	)

	if limitStr == "" || remainingStr == "" || resetStr == "" {
		return nil, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return nil, err
	}

	remaining, err := strconv.Atoi(remainingStr)
	if err != nil {
		return nil, err
	}

	resetSeconds, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return nil, err
	}

	return &RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		Reset:     time.Duration(resetSeconds) * time.Second,
	}, nil
}
