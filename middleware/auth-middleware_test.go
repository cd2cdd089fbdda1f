package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trello-project/web-client/utils"
)

type fakeRefresher struct {
	calls   int32
	fail    bool
	jar     http.CookieJar
	baseURL *url.URL
	release chan struct{}
	entered chan struct{}
}

func (f *fakeRefresher) Refresh(ctx context.Context) error {
	atomic.AddInt32(&f.calls, 1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.fail {
		return errors.New("refresh rejected")
	}
	f.jar.SetCookies(f.baseURL, []*http.Cookie{{Name: "accessToken", Value: "fresh", Path: "/"}})
	return nil
}

type fakeNavigator struct {
	mu      sync.Mutex
	reasons []string
}

func (n *fakeNavigator) NavigateToLogin(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *fakeNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

type harness struct {
	server    *httptest.Server
	client    *http.Client
	jar       http.CookieJar
	refresher *fakeRefresher
	navigator *fakeNavigator
	transport *AuthTransport
	hits      int32
}

// newHarness starts a backend that accepts only the "fresh" access token on
// data endpoints.
func newHarness(t *testing.T, handler http.HandlerFunc) *harness {
	t.Helper()
	h := &harness{}
	if handler == nil {
		handler = func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("accessToken")
			if err != nil || c.Value != "fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
			w.Write(body)
		}
	}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&h.hits, 1)
		handler(w, r)
	}))
	t.Cleanup(h.server.Close)

	jar, err := utils.NewCookieJar()
	if err != nil {
		t.Fatalf("jar: %v", err)
	}
	base, _ := url.Parse(h.server.URL + "/api")
	jar.SetCookies(base, []*http.Cookie{{Name: "accessToken", Value: "stale", Path: "/"}})

	h.jar = jar
	h.refresher = &fakeRefresher{jar: jar, baseURL: base}
	h.navigator = &fakeNavigator{}
	h.transport = NewAuthTransport(h.server.Client().Transport, jar, base, h.refresher, h.navigator)
	h.client = &http.Client{Transport: h.transport}
	return h
}

func (h *harness) url(path string) string {
	return h.server.URL + "/api" + path
}

func TestRefreshThenSingleRetry(t *testing.T) {
	h := newHarness(t, nil)

	req, _ := http.NewRequest(http.MethodPost, h.url("/projects"), strings.NewReader(`{"name":"Apollo"}`))
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected retried request to succeed, got %d", resp.StatusCode)
	}
	if string(body) != `{"name":"Apollo"}` {
		t.Fatalf("retry must replay the original body, got %q", body)
	}
	if got := atomic.LoadInt32(&h.refresher.calls); got != 1 {
		t.Fatalf("expected one refresh, got %d", got)
	}
	if got := atomic.LoadInt32(&h.hits); got != 2 {
		t.Fatalf("expected original plus one retry, got %d requests", got)
	}
	if h.navigator.count() != 0 {
		t.Fatalf("no redirect expected after a successful refresh")
	}
}

func TestRefreshFailurePropagatesOriginal401(t *testing.T) {
	h := newHarness(t, nil)
	h.refresher.fail = true

	resp, err := h.client.Get(h.url("/projects"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected original 401, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&h.hits); got != 1 {
		t.Fatalf("no retry expected after a failed refresh, got %d requests", got)
	}
	if h.navigator.count() != 1 {
		t.Fatalf("expected redirect to login, got %d", h.navigator.count())
	}
}

func TestRetryStillUnauthorizedRedirects(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	resp, err := h.client.Get(h.url("/tasks/1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if got := atomic.LoadInt32(&h.refresher.calls); got != 1 {
		t.Fatalf("expected exactly one refresh, got %d", got)
	}
	if got := atomic.LoadInt32(&h.hits); got != 2 {
		t.Fatalf("expected exactly one retry, got %d requests", got)
	}
	if h.navigator.count() != 1 {
		t.Fatalf("unrecovered 401 must redirect to login")
	}
}

func TestSessionEndpointNeverRefreshes(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		resp, err := h.client.Get(h.url("/auth/check"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != status {
			t.Fatalf("expected %d to propagate, got %d", status, resp.StatusCode)
		}
		if atomic.LoadInt32(&h.refresher.calls) != 0 {
			t.Fatalf("session endpoints must not trigger a refresh")
		}
		if h.navigator.count() != 1 {
			t.Fatalf("status %d on a session endpoint must redirect", status)
		}
	}
}

func TestForbiddenDataEndpointPropagates(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	resp, err := h.client.Get(h.url("/projects/3"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if atomic.LoadInt32(&h.refresher.calls) != 0 || h.navigator.count() != 0 {
		t.Fatalf("403 on a data endpoint must neither refresh nor redirect")
	}
}

func TestParallelUnauthorizedShareOneRefresh(t *testing.T) {
	const parallel = 5
	h := newHarness(t, nil)
	h.refresher.release = make(chan struct{})

	var wg sync.WaitGroup
	statuses := make([]int, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := h.client.Get(h.url("/projects"))
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(&h.hits) < parallel && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(h.refresher.release)
	wg.Wait()

	if got := atomic.LoadInt32(&h.refresher.calls); got != 1 {
		t.Fatalf("expected parallel 401s to share one refresh, got %d", got)
	}
	for i, status := range statuses {
		if status != http.StatusOK {
			t.Errorf("request %d: expected 200 after shared refresh, got %d", i, status)
		}
	}
}

func TestSetCookieIsStoredInJar(t *testing.T) {
	h := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "r1", Path: "/"})
		w.WriteHeader(http.StatusOK)
	})
	resp, err := h.client.Post(h.url("/auth/login"), "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	u, _ := url.Parse(h.url("/projects"))
	found := false
	for _, c := range h.jar.Cookies(u) {
		if c.Name == "refreshToken" && c.Value == "r1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Set-Cookie from the backend must land in the jar")
	}
}

func TestRefreshAheadOfExpiry(t *testing.T) {
	h := newHarness(t, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(20 * time.Second)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	h.jar.SetCookies(h.transport.BaseURL, []*http.Cookie{{Name: "accessToken", Value: token, Path: "/"}})
	h.transport.RefreshAhead = time.Minute
	h.transport.Now = func() time.Time { return now }

	resp, err := h.client.Get(h.url("/projects"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected request to carry the refreshed token, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&h.hits); got != 1 {
		t.Fatalf("refresh ahead should avoid the 401 round trip, got %d requests", got)
	}
}

func TestCancelledCallerDoesNotRedirect(t *testing.T) {
	h := newHarness(t, nil)
	h.refresher.release = make(chan struct{})
	h.refresher.entered = make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, h.url("/projects"), nil)
	done := make(chan error, 1)
	go func() {
		resp, err := h.client.Do(req)
		if resp != nil {
			resp.Body.Close()
		}
		done <- err
	}()

	select {
	case <-h.refresher.entered:
	case <-time.After(time.Second):
		t.Fatalf("refresh never started")
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("cancelled request did not return")
	}

	close(h.refresher.release)
	base, _ := url.Parse(h.url("/"))
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(h.transport.cookieHeader(base), "accessToken=fresh") {
		if time.Now().After(deadline) {
			t.Fatalf("detached refresh did not complete")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if h.navigator.count() != 0 {
		t.Fatalf("a cancelled caller must not send the visitor to login, got %v", h.navigator.reasons)
	}

	resp, err := h.client.Get(h.url("/projects"))
	if err != nil {
		t.Fatalf("follow-up request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session should still work after the refresh, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&h.refresher.calls); got != 1 {
		t.Fatalf("expected a single refresh, got %d", got)
	}
}

func TestRedirectGoesToRequestNavigator(t *testing.T) {
	h := newHarness(t, nil)
	h.refresher.fail = true
	scoped := &fakeNavigator{}

	req, _ := http.NewRequestWithContext(WithNavigator(context.Background(), scoped), http.MethodGet, h.url("/projects"), nil)
	resp, err := h.client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if scoped.count() != 1 {
		t.Fatalf("expected the request's navigator to get the redirect, got %d", scoped.count())
	}
	if h.navigator.count() != 0 {
		t.Fatalf("shared navigator must stay untouched, got %v", h.navigator.reasons)
	}
}
