package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/publicsuffix"

	"trello-project/web-client/logging"
)

// errUpstreamStatus marks a 5xx answer as a breaker failure while the
// response itself still reaches the caller.
var errUpstreamStatus = errors.New("upstream answered with a server error")

type BreakerSettings struct {
	Name                string
	MaxRequests         uint32
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

func NewBreaker(s BreakerSettings) *gobreaker.CircuitBreaker {
	threshold := s.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not a backend fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

type breakerTransport struct {
	breaker *gobreaker.CircuitBreaker
	next    http.RoundTripper
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	_, err := t.breaker.Execute(func() (interface{}, error) {
		r, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return r, errUpstreamStatus
		}
		return r, nil
	})
	switch {
	case err == nil, errors.Is(err, errUpstreamStatus):
		return resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		logging.Logger.Warnf("Event ID: CIRCUIT_BREAKER_REJECTED, Description: %s %s rejected by '%s': %v", req.Method, req.URL.Path, t.breaker.Name(), err)
		return nil, fmt.Errorf("backend unavailable: %w", err)
	}
	return nil, err
}

// NewBackendTransport wraps base (http.DefaultTransport when nil) with
// tracing and the circuit breaker. Callers put their own round trippers
// in front of it.
func NewBackendTransport(base http.RoundTripper, breaker *gobreaker.CircuitBreaker) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	traced := otelhttp.NewTransport(base)
	if breaker == nil {
		return traced
	}
	return &breakerTransport{breaker: breaker, next: traced}
}

// NewHTTPClient returns a client without its own jar; cookies are handled by
// the transport so a retried request sees refreshed credentials.
func NewHTTPClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

func NewCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}
