package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"trello-project/web-client/models"
)

var ErrInvitationConsumed = errors.New("invitation already accepted")

// InvitationService reads invitations by token and accepts them. A token is
// consumed once: after a successful accept it is refused locally.
type InvitationService struct {
	api *APIClient
	now func() time.Time

	mu       sync.Mutex
	accepted map[string]bool
}

func NewInvitationService(api *APIClient) *InvitationService {
	return &InvitationService{
		api:      api,
		now:      time.Now,
		accepted: make(map[string]bool),
	}
}

func invitationToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", &ValidationError{Field: "token", Message: "Invalid invitation token"}
	}
	return url.PathEscape(token), nil
}

func (s *InvitationService) Details(ctx context.Context, token string) (*models.Invitation, error) {
	escaped, err := invitationToken(token)
	if err != nil {
		return nil, err
	}
	var inv models.Invitation
	if err := s.api.Get(ctx, "/invitations/details/"+escaped, nil, &inv); err != nil {
		return nil, fmt.Errorf("failed to load invitation details: %w", err)
	}
	if inv.Token == "" {
		inv.Token = token
	}
	return &inv, nil
}

// Accept consumes the invitation. When details are already known the caller
// passes them so expired or non-pending invitations fail without a request.
func (s *InvitationService) Accept(ctx context.Context, token string, known *models.Invitation) (*models.InvitationAcceptResponse, error) {
	escaped, err := invitationToken(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	consumed := s.accepted[token]
	s.mu.Unlock()
	if consumed {
		return nil, ErrInvitationConsumed
	}

	if known != nil && !known.Acceptable(s.now()) {
		if known.Expired(s.now()) {
			return nil, &APIError{Status: http.StatusGone, Kind: KindExpired, Message: "Invitation has expired"}
		}
		return nil, &ValidationError{Field: "status", Message: "Invitation is no longer pending"}
	}

	var resp models.InvitationAcceptResponse
	if err := s.api.Post(ctx, "/invitations/accept/"+escaped, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	s.mu.Lock()
	s.accepted[token] = true
	s.mu.Unlock()
	return &resp, nil
}
