package oura

import (
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

type ListParams struct {
	Limit int

	// Datetime window (heart rate collection).
	StartDatetime *time.Time
	EndDatetime   *time.Time

	// Date window (daily summary collections).
	StartDate *time.Time
	EndDate   *time.Time

	NextToken *string
}

func (p *ListParams) values() url.Values {
	if p == nil {
		return nil
	}

	v := make(url.Values)

	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.StartDatetime != nil {
		v.Set("start_datetime", p.StartDatetime.Format(time.RFC3339))
	}
	if p.EndDatetime != nil {
		v.Set("end_datetime", p.EndDatetime.Format(time.RFC3339))
	}
	if p.StartDate != nil {
		v.Set("start_date", p.StartDate.Format(dateLayout))
	}
	if p.EndDate != nil {
		v.Set("end_date", p.EndDate.Format(dateLayout))
	}
	if p.NextToken != nil {
		v.Set("next_token", *p.NextToken)
	}

	return v
}

type PaginatedResponse[T any] struct {
	Data      []T     `json:"data"`
	NextToken *string `json:"next_token,omitempty"`
}

func (p *PaginatedResponse[T]) HasMore() bool {
	return p.NextToken != nil && *p.NextToken != ""
}
