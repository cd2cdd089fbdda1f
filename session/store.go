package session

import (
	"context"
	"errors"
	"sync"

	"trello-project/web-client/logging"
	"trello-project/web-client/models"
	"trello-project/web-client/services"
)

const (
	msgLoginFailed        = "Login failed"
	msgRegistrationFailed = "Registration failed"
	msgCheckFailed        = "Session check failed"
	msgRefreshFailed      = "Token refresh failed"
)

// ErrNoIdentity is returned when the backend answered 2xx without a user.
var ErrNoIdentity = errors.New("response carried no user identity")

// AuthAPI is the subset of services.AuthService the store drives.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error)
	Logout(ctx context.Context) error
	Check(ctx context.Context) (*models.AuthResponse, error)
	RefreshToken(ctx context.Context) (*models.AuthResponse, error)
}

// Session is the client's belief about the current user.
type Session struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Loading         bool         `json:"loading"`
	Error           string       `json:"error,omitempty"`
}

func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Store owns one visitor's Session. Other components read it through the
// view methods or a subscription; only the store's operations change it.
type Store struct {
	api AuthAPI

	mu     sync.Mutex
	state  Session
	subs   map[int]chan Session
	nextID int
	closed bool
}

func NewStore(api AuthAPI) *Store {
	return &Store{
		api:  api,
		subs: make(map[int]chan Session),
	}
}

func (s *Store) Login(ctx context.Context, creds models.Credentials) error {
	if err := services.ValidateCredentials(creds); err != nil {
		s.fail(err, msgLoginFailed, false)
		return err
	}
	s.begin()

	resp, err := s.api.Login(ctx, creds)
	if err == nil && resp.Identity() == nil {
		err = ErrNoIdentity
	}
	if err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Login for %s failed: %v", creds.Email, err)
		s.fail(err, msgLoginFailed, false)
		return err
	}

	user := resp.Identity()
	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %d (%s) logged in", user.ID, user.Username)
	s.authenticate(user)
	return nil
}

// Register creates the account. A response that carries a user identity
// also authenticates the session; otherwise the visitor still has to log in.
func (s *Store) Register(ctx context.Context, reg models.Registration) error {
	if err := services.ValidateRegistration(reg); err != nil {
		s.fail(err, msgRegistrationFailed, false)
		return err
	}
	s.begin()

	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		logging.Logger.Warnf("Event ID: REGISTRATION_FAILED, Description: Registration for %s failed: %v", reg.Email, err)
		s.fail(err, msgRegistrationFailed, false)
		return err
	}

	if user := resp.Identity(); user != nil {
		logging.Logger.Infof("Event ID: REGISTRATION_SUCCESS, Description: User %d (%s) registered", user.ID, user.Username)
		s.authenticate(user)
		return nil
	}
	s.update(func(st *Session) {
		st.Loading = false
	})
	return nil
}

// Logout always ends in the logged-out state. The server error, if any, is
// returned for reporting only.
func (s *Store) Logout(ctx context.Context) error {
	s.begin()
	err := s.api.Logout(ctx)
	if err != nil {
		logging.Logger.Warnf("Event ID: LOGOUT_SERVER_FAILED, Description: Server logout failed, clearing local session anyway: %v", err)
	} else {
		logging.Logger.Infof("Event ID: LOGOUT_SUCCESS, Description: Session cleared")
	}
	s.update(func(st *Session) {
		st.User = nil
		st.IsAuthenticated = false
		st.Loading = false
		st.Error = ""
	})
	return err
}

func (s *Store) CheckStatus(ctx context.Context) error {
	return s.reauthenticate(ctx, s.api.Check, msgCheckFailed)
}

func (s *Store) Refresh(ctx context.Context) error {
	return s.reauthenticate(ctx, s.api.RefreshToken, msgRefreshFailed)
}

// reauthenticate never leaves the session authenticated after a failed or
// identity-less answer.
func (s *Store) reauthenticate(ctx context.Context, call func(context.Context) (*models.AuthResponse, error), fallback string) error {
	s.begin()
	resp, err := call(ctx)
	if err == nil && resp.Identity() == nil {
		err = ErrNoIdentity
	}
	if err != nil {
		logging.Logger.Debugf("Event ID: SESSION_NOT_AUTHENTICATED, Description: %s: %v", fallback, err)
		s.fail(err, fallback, true)
		return err
	}
	s.authenticate(resp.Identity())
	return nil
}

// Reset drops the identity after an authentication failure the session
// could not recover from.
func (s *Store) Reset(message string) {
	logging.Logger.Infof("Event ID: SESSION_RESET, Description: %s", message)
	s.update(func(st *Session) {
		st.User = nil
		st.IsAuthenticated = false
		st.Loading = false
		st.Error = message
	})
}

func (s *Store) begin() {
	s.update(func(st *Session) {
		st.Loading = true
		st.Error = ""
	})
}

func (s *Store) authenticate(user *models.User) {
	s.update(func(st *Session) {
		st.User = user
		st.IsAuthenticated = true
		st.Loading = false
		st.Error = ""
	})
}

func (s *Store) fail(err error, fallback string, clear bool) {
	message := services.ServerMessageOr(err, fallback)
	s.update(func(st *Session) {
		if clear {
			st.User = nil
			st.IsAuthenticated = false
		}
		st.Loading = false
		st.Error = message
	})
}

func (s *Store) update(mutate func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.state)
	if s.state.User == nil || s.state.User.ID == 0 {
		s.state.IsAuthenticated = false
	}
	s.publishLocked()
}

func (s *Store) publishLocked() {
	if s.closed {
		return
	}
	snap := s.state.clone()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) User() *models.User    { return s.Snapshot().User }
func (s *Store) IsAuthenticated() bool { return s.Snapshot().IsAuthenticated }
func (s *Store) Loading() bool         { return s.Snapshot().Loading }
func (s *Store) Error() string         { return s.Snapshot().Error }

// Subscribe returns a channel holding the latest snapshot. Slow readers skip
// intermediate states. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan Session, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Session, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	ch <- s.state.clone()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Close releases every subscriber. The store keeps answering reads.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
