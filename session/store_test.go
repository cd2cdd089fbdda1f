package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trello-project/web-client/models"
	"trello-project/web-client/services"
)

// newBackendStore wires the store to a real AuthService over a fake backend.
func newBackendStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api := services.NewAPIClient(srv.URL+"/api", srv.Client())
	return NewStore(services.NewAuthService(api))
}

func reply(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func TestLoginScenarios(t *testing.T) {
	store := newBackendStore(t, func(w http.ResponseWriter, r *http.Request) {
		var creds models.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password == "secret1" {
			reply(w, http.StatusOK, map[string]interface{}{"userId": 1, "username": "ana", "email": creds.Email, "tokenType": "Bearer"})
			return
		}
		reply(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
	})
	ctx := context.Background()

	if err := store.Login(ctx, models.Credentials{Email: "a@b.com", Password: "badpass"}); err == nil {
		t.Fatalf("expected login failure")
	}
	if store.IsAuthenticated() {
		t.Fatalf("failed login must not authenticate")
	}
	if store.Error() != "Invalid credentials" {
		t.Fatalf("expected server message, got %q", store.Error())
	}
	if store.Loading() {
		t.Fatalf("loading must be cleared after failure")
	}

	if err := store.Login(ctx, models.Credentials{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	user := store.User()
	if user == nil || user.ID != 1 || user.Username != "ana" {
		t.Fatalf("unexpected user %+v", user)
	}
	if !store.IsAuthenticated() || store.Error() != "" {
		t.Fatalf("expected authenticated session without error, got %+v", store.Snapshot())
	}
}

func TestLoginFallbackMessage(t *testing.T) {
	store := newBackendStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_ = store.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"})
	if store.Error() != "Login failed" {
		t.Fatalf("expected fallback message, got %q", store.Error())
	}
}

func TestLoginUnreachableUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	store := NewStore(services.NewAuthService(services.NewAPIClient(base+"/api", http.DefaultClient)))
	if err := store.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"}); !errors.Is(err, services.ErrConnectivity) {
		t.Fatalf("expected connectivity error, got %v", err)
	}
	if store.Error() != "Login failed" {
		t.Fatalf("expected fallback message, got %q", store.Error())
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	called := false
	store := newBackendStore(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	err := store.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "pw"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("invalid credentials must not reach the backend")
	}
	if store.Error() == "" {
		t.Fatalf("validation failure must set the error")
	}
}

type fakeAuth struct {
	logoutErr  error
	checkResp  *models.AuthResponse
	checkErr   error
	refreshErr error
	register   *models.AuthResponse
}

func (f *fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error) {
	return &models.AuthResponse{UserID: 5, Username: "ana", Email: creds.Email}, nil
}

func (f *fakeAuth) Register(ctx context.Context, reg models.Registration) (*models.AuthResponse, error) {
	return f.register, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error { return f.logoutErr }

func (f *fakeAuth) Check(ctx context.Context) (*models.AuthResponse, error) {
	return f.checkResp, f.checkErr
}

func (f *fakeAuth) RefreshToken(ctx context.Context) (*models.AuthResponse, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &models.AuthResponse{UserID: 5, Username: "ana"}, nil
}

func loggedIn(t *testing.T, api *fakeAuth) *Store {
	t.Helper()
	store := NewStore(api)
	if err := store.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	return store
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	for _, serverErr := range []error{nil, &services.APIError{Status: 500, Kind: services.KindServer}} {
		store := loggedIn(t, &fakeAuth{logoutErr: serverErr})
		err := store.Logout(context.Background())
		if err != serverErr {
			t.Fatalf("server error should be reported, got %v", err)
		}
		if store.IsAuthenticated() || store.User() != nil {
			t.Fatalf("logout must clear the session, got %+v", store.Snapshot())
		}
	}
}

func TestCheckStatusFailureDegradesToLoggedOut(t *testing.T) {
	api := &fakeAuth{}
	store := loggedIn(t, api)

	api.checkErr = &services.APIError{Status: 401, Kind: services.KindAuthentication}
	if err := store.CheckStatus(context.Background()); err == nil {
		t.Fatalf("expected check failure")
	}
	snap := store.Snapshot()
	if snap.IsAuthenticated || snap.User != nil {
		t.Fatalf("failed check must clear the session, got %+v", snap)
	}
	if snap.Error != "Session check failed" {
		t.Fatalf("unexpected error %q", snap.Error)
	}

	api.checkErr = nil
	api.checkResp = &models.AuthResponse{TokenType: "Bearer"}
	if err := store.CheckStatus(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("identity-less answer must fail, got %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("identity-less answer must not authenticate")
	}

	api.checkResp = &models.AuthResponse{UserID: 5, Username: "ana"}
	if err := store.CheckStatus(context.Background()); err != nil || !store.IsAuthenticated() {
		t.Fatalf("successful check must authenticate, err=%v", err)
	}
}

func TestRefreshFailure(t *testing.T) {
	api := &fakeAuth{}
	store := loggedIn(t, api)
	api.refreshErr = &services.APIError{Kind: services.KindConnectivity}

	if err := store.Refresh(context.Background()); err == nil {
		t.Fatalf("expected refresh failure")
	}
	if store.IsAuthenticated() || store.Error() != "Token refresh failed" {
		t.Fatalf("unexpected session %+v", store.Snapshot())
	}
}

func TestRegisterWithoutIdentityStaysLoggedOut(t *testing.T) {
	store := NewStore(&fakeAuth{register: &models.AuthResponse{Username: "ana"}})
	err := store.Register(context.Background(), models.Registration{Username: "ana", Email: "a@b.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatalf("register without identity must not authenticate")
	}

	store = NewStore(&fakeAuth{register: &models.AuthResponse{ID: 8, Username: "ana"}})
	_ = store.Register(context.Background(), models.Registration{Username: "ana", Email: "a@b.com", Password: "secret1"})
	if !store.IsAuthenticated() || store.User().ID != 8 {
		t.Fatalf("register with identity must authenticate, got %+v", store.Snapshot())
	}
}

func TestSubscribeDeliversLatestSnapshot(t *testing.T) {
	store := NewStore(&fakeAuth{})
	updates, cancel := store.Subscribe()
	defer cancel()

	if first := <-updates; first.IsAuthenticated {
		t.Fatalf("initial snapshot must be logged out")
	}
	if err := store.Login(context.Background(), models.Credentials{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	select {
	case snap := <-updates:
		if !snap.IsAuthenticated || snap.User.ID != 5 {
			t.Fatalf("expected latest authenticated snapshot, got %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatalf("no snapshot delivered")
	}

	store.Close()
	if _, ok := <-updates; ok {
		t.Fatalf("close must release subscribers")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	store := loggedIn(t, &fakeAuth{})
	snap := store.Snapshot()
	snap.User.Username = "changed"
	if store.User().Username != "ana" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestResetClearsIdentity(t *testing.T) {
	store := loggedIn(t, &fakeAuth{})
	store.Reset("Session expired")
	snap := store.Snapshot()
	if snap.IsAuthenticated || snap.User != nil || snap.Error != "Session expired" {
		t.Fatalf("unexpected session after reset %+v", snap)
	}
}
