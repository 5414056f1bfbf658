package oura

import (
	"context"
	"net/http"
)

type DailyStressService interface {
	List(ctx context.Context, params *ListParams) (*PaginatedResponse[Row], error)
}

type dailyStressService struct {
	client *Client
}

func (s *dailyStressService) List(ctx context.Context, params *ListParams) (*PaginatedResponse[Row], error) {
	const route = "/v2/usercollection/daily_stress"

	var resp PaginatedResponse[Row]
	if err := s.client.do(ctx, http.MethodGet, route, params.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
