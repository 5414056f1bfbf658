package oura

import (
	"context"
	"net/http"
)

type PersonalService interface {
	Get(ctx context.Context) (*PersonalInfo, error)
	RevokeAccess(ctx context.Context) error
}

type personalService struct {
	client *Client
}

func (s *personalService) Get(ctx context.Context) (*PersonalInfo, error) {
	const route = "/v2/usercollection/personal_info"

	var info PersonalInfo
	if err := s.client.do(ctx, http.MethodGet, route, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *personalService) RevokeAccess(ctx context.Context) error {
	const route = "/oauth/revoke"
	return s.client.do(ctx, http.MethodPost, route, nil, nil)
}
