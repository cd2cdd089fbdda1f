package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"trello-project/web-client/logging"
	"trello-project/web-client/services"
	"trello-project/web-client/utils"
)

// Refresher renews the session credentials, normally the session store.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Navigator is told when the visitor has to go back to the login page.
type Navigator interface {
	NavigateToLogin(reason string)
}

type navigatorKey struct{}

// WithNavigator scopes login navigation to the work done under ctx. Redirects
// raised by requests carrying ctx go to nav instead of the transport's own.
func WithNavigator(ctx context.Context, nav Navigator) context.Context {
	return context.WithValue(ctx, navigatorKey{}, nav)
}

// NavigatorFrom returns the navigator scoped to ctx, or fallback.
func NavigatorFrom(ctx context.Context, fallback Navigator) Navigator {
	if nav, ok := ctx.Value(navigatorKey{}).(Navigator); ok && nav != nil {
		return nav
	}
	return fallback
}

var errNotRewindable = errors.New("request body cannot be replayed")

// AuthTransport attaches the session cookies to every backend request and
// recovers from an expired access token with one silent refresh and one
// retry. Parallel 401s share a single refresh call.
type AuthTransport struct {
	Next      http.RoundTripper
	Jar       http.CookieJar
	BaseURL   *url.URL
	Refresher Refresher
	Navigator Navigator

	// RefreshAhead > 0 refreshes before dispatch when the access cookie
	// expires within that window.
	RefreshAhead time.Duration
	AccessCookie string
	Now          func() time.Time

	group singleflight.Group
}

func NewAuthTransport(next http.RoundTripper, jar http.CookieJar, baseURL *url.URL, refresher Refresher, nav Navigator) *AuthTransport {
	return &AuthTransport{
		Next:         next,
		Jar:          jar,
		BaseURL:      baseURL,
		Refresher:    refresher,
		Navigator:    nav,
		AccessCookie: "accessToken",
		Now:          time.Now,
	}
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sessionCall := t.isSessionEndpoint(req.URL)
	refreshAttempted := false

	if !sessionCall && t.accessTokenExpiring(req.URL) {
		refreshAttempted = true
		if err := t.refresh(req.Context()); err != nil {
			logging.Logger.Warnf("Event ID: TOKEN_REFRESH_AHEAD_FAILED, Description: Refresh before %s failed: %v", req.URL.Path, err)
		}
	}

	resp, sent, err := t.dispatch(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if sessionCall || refreshAttempted {
			t.navigate(req.Context(), "unauthorized on "+req.URL.Path)
			return resp, nil
		}
		return t.recoverUnauthorized(req, resp, sent)
	case http.StatusForbidden:
		if sessionCall {
			t.navigate(req.Context(), "forbidden on "+req.URL.Path)
		}
	}
	return resp, nil
}

// recoverUnauthorized runs the refresh-then-retry branch for a 401 on a data endpoint.
func (t *AuthTransport) recoverUnauthorized(req *http.Request, resp *http.Response, sent string) (*http.Response, error) {
	// a changed jar means a parallel request already refreshed
	if t.cookieHeader(req.URL) == sent {
		if err := t.refresh(req.Context()); err != nil {
			// the caller went away; the shared refresh may still succeed
			if ctxErr := req.Context().Err(); ctxErr != nil {
				drain(resp)
				return nil, ctxErr
			}
			logging.Logger.Warnf("Event ID: TOKEN_REFRESH_FAILED, Description: Silent refresh after 401 on %s failed: %v", req.URL.Path, err)
			t.navigate(req.Context(), "token refresh failed")
			return resp, nil
		}
	}

	retry, err := rewind(req)
	if err != nil {
		logging.Logger.Warnf("Event ID: REQUEST_RETRY_SKIPPED, Description: %s %s: %v", req.Method, req.URL.Path, err)
		t.navigate(req.Context(), "request could not be retried")
		return resp, nil
	}
	drain(resp)

	logging.Logger.Debugf("Event ID: REQUEST_RETRY, Description: Retrying %s %s after refresh", req.Method, req.URL.Path)
	retried, _, err := t.dispatch(retry)
	if err != nil {
		return nil, err
	}
	if retried.StatusCode == http.StatusUnauthorized {
		t.navigate(req.Context(), "unauthorized after refresh")
	}
	return retried, nil
}

// refresh shares one in-flight call between all waiting requests. The call
// is detached from the first caller's cancellation so the others still get
// its result.
func (t *AuthTransport) refresh(ctx context.Context) error {
	if t.Refresher == nil {
		return errors.New("no refresher configured")
	}
	ch := t.group.DoChan("refresh", func() (interface{}, error) {
		logging.Logger.Infof("Event ID: TOKEN_REFRESH_ATTEMPT, Description: Refreshing session credentials")
		return nil, t.Refresher.Refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *AuthTransport) dispatch(req *http.Request) (*http.Response, string, error) {
	out := req.Clone(req.Context())
	out.Header.Del("Cookie")
	if t.Jar != nil {
		for _, c := range t.Jar.Cookies(req.URL) {
			out.AddCookie(c)
		}
	}
	if out.Body != nil && out.Body != http.NoBody && out.Header.Get("Content-Type") == "" {
		out.Header.Set("Content-Type", "application/json")
	}
	sent := out.Header.Get("Cookie")

	resp, err := t.next().RoundTrip(out)
	if err != nil {
		return nil, sent, err
	}
	if t.Jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			t.Jar.SetCookies(req.URL, cookies)
		}
	}
	return resp, sent, nil
}

func (t *AuthTransport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}

func (t *AuthTransport) cookieHeader(u *url.URL) string {
	if t.Jar == nil {
		return ""
	}
	probe := &http.Request{Header: make(http.Header)}
	for _, c := range t.Jar.Cookies(u) {
		probe.AddCookie(c)
	}
	return probe.Header.Get("Cookie")
}

func (t *AuthTransport) isSessionEndpoint(u *url.URL) bool {
	path := u.Path
	if t.BaseURL != nil {
		path = strings.TrimPrefix(path, strings.TrimRight(t.BaseURL.Path, "/"))
	}
	return strings.HasPrefix(path, services.AuthPrefix)
}

func (t *AuthTransport) accessTokenExpiring(u *url.URL) bool {
	if t.RefreshAhead <= 0 || t.Jar == nil {
		return false
	}
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	for _, c := range t.Jar.Cookies(u) {
		if c.Name == t.AccessCookie {
			return utils.ExpiresWithin(c.Value, t.RefreshAhead, now())
		}
	}
	return false
}

func (t *AuthTransport) navigate(ctx context.Context, reason string) {
	logging.Logger.Infof("Event ID: REDIRECT_TO_LOGIN, Description: %s", reason)
	if nav := NavigatorFrom(ctx, t.Navigator); nav != nil {
		nav.NavigateToLogin(reason)
	}
}

func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, errNotRewindable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
