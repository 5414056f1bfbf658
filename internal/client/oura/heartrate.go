package oura

import (
	"context"
	"net/http"
)

type HeartRateService interface {
	List(ctx context.Context, params *ListParams) (*PaginatedResponse[Row], error)
}

type heartRateService struct {
	client *Client
}

func (s *heartRateService) List(ctx context.Context, params *ListParams) (*PaginatedResponse[Row], error) {
	const route = "/v2/usercollection/heartrate"

	var resp PaginatedResponse[Row]
	if err := s.client.do(ctx, http.MethodGet, route, params.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
