package guard

import (
	"context"
	"time"

	"trello-project/web-client/logging"
	"trello-project/web-client/middleware"
)

const defaultCheckTimeout = 10 * time.Second

type SessionChecker interface {
	IsAuthenticated() bool
	CheckStatus(ctx context.Context) error
}

type Navigator interface {
	NavigateToLogin(reason string)
}

// Guard gates protected routes on the session. A denied navigation always
// ends with a redirect to login, never in a pending state.
type Guard struct {
	Session      SessionChecker
	Navigator    Navigator
	CheckTimeout time.Duration
}

func New(session SessionChecker, nav Navigator, checkTimeout time.Duration) *Guard {
	if checkTimeout <= 0 {
		checkTimeout = defaultCheckTimeout
	}
	return &Guard{Session: session, Navigator: nav, CheckTimeout: checkTimeout}
}

func (g *Guard) CanActivate(ctx context.Context, route string) bool {
	if g.Session.IsAuthenticated() {
		return true
	}

	timeout := g.CheckTimeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := g.Session.CheckStatus(checkCtx); err != nil {
		logging.Logger.Infof("Event ID: ROUTE_DENIED, Description: Session check for %s failed: %v", route, err)
		g.deny(ctx, route)
		return false
	}
	if !g.Session.IsAuthenticated() {
		logging.Logger.Infof("Event ID: ROUTE_DENIED, Description: Not authenticated for %s", route)
		g.deny(ctx, route)
		return false
	}
	return true
}

func (g *Guard) deny(ctx context.Context, route string) {
	if nav := middleware.NavigatorFrom(ctx, g.Navigator); nav != nil {
		nav.NavigateToLogin("guard denied " + route)
	}
}
