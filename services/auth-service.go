package services

import (
	"context"

	"trello-project/web-client/models"
)

// Session-management endpoints, relative to the API base URL.
const (
	AuthPrefix       = "/auth/"
	PathLogin        = "/auth/login"
	PathRegister     = "/auth/register"
	PathLogout       = "/auth/logout"
	PathCheck        = "/auth/check"
	PathRefreshToken = "/auth/refresh-token"
)

// AuthService issues the session calls. It keeps no state; the session store
// turns its results into session transitions.
type AuthService struct {
	api *APIClient
}

func NewAuthService(api *APIClient) *AuthService {
	return &AuthService{api: api}
}

func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, PathLogin, creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, PathRegister, reg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	return s.api.Post(ctx, PathLogout, struct{}{}, nil)
}

func (s *AuthService) Check(ctx context.Context) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Get(ctx, PathCheck, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *AuthService) RefreshToken(ctx context.Context) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.api.Post(ctx, PathRefreshToken, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
