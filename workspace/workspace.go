package workspace

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"trello-project/web-client/board"
	"trello-project/web-client/config"
	"trello-project/web-client/guard"
	"trello-project/web-client/middleware"
	"trello-project/web-client/services"
	"trello-project/web-client/session"
	"trello-project/web-client/utils"
)

// Workspace is everything one visitor owns: session, cookies, API services
// and the board cache. It is created on the first request and torn down on
// logout or after sitting idle.
type Workspace struct {
	ID string

	Session     *session.Store
	Guard       *guard.Guard
	Auth        *services.AuthService
	Projects    *services.ProjectService
	Settings    *services.SettingsService
	Tasks       *services.TaskService
	History     *services.HistoryService
	Invitations *services.InvitationService
	Board       *board.Cache
	Moves       *board.Controller

	nav *LoginRedirect

	mu       sync.Mutex
	lastSeen time.Time
}

// LoginRedirect records that the visitor must be sent to the login page.
// Handlers keep one per request; the workspace's own catches redirects raised
// outside a request, e.g. by the guard or the CLI.
type LoginRedirect struct {
	mu     sync.Mutex
	reason string
	set    bool
}

func (n *LoginRedirect) NavigateToLogin(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reason, n.set = reason, true
}

func (n *LoginRedirect) Pending() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.set
}

// Take returns the pending redirect and clears it.
func (n *LoginRedirect) Take() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	reason, set := n.reason, n.set
	n.reason, n.set = "", false
	return reason, set
}

// New builds a workspace whose requests go through backend, the shared
// breaker and tracing transport.
func New(id string, cfg config.Config, backend http.RoundTripper) (*Workspace, error) {
	base, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API_URL %q: %w", cfg.APIURL, err)
	}
	jar, err := utils.NewCookieJar()
	if err != nil {
		return nil, err
	}

	nav := &LoginRedirect{}
	transport := middleware.NewAuthTransport(backend, jar, base, nil, nav)
	transport.RefreshAhead = cfg.RefreshAhead
	if cfg.AccessCookie != "" {
		transport.AccessCookie = cfg.AccessCookie
	}
	api := services.NewAPIClient(cfg.APIURL, utils.NewHTTPClient(transport, cfg.HTTPTimeout))

	auth := services.NewAuthService(api)
	store := session.NewStore(auth)
	transport.Refresher = store

	tasks := services.NewTaskService(api)
	settings := services.NewSettingsService(api)
	cache := board.NewCache(tasks, settings)

	return &Workspace{
		ID:          id,
		Session:     store,
		Guard:       guard.New(store, nav, cfg.GuardCheckTimeout),
		Auth:        auth,
		Projects:    services.NewProjectService(api),
		Settings:    settings,
		Tasks:       tasks,
		History:     services.NewHistoryService(api),
		Invitations: services.NewInvitationService(api),
		Board:       cache,
		Moves:       board.NewController(cache, tasks),
		nav:         nav,
		lastSeen:    time.Now(),
	}, nil
}

func (w *Workspace) Redirect() *LoginRedirect { return w.nav }

func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) IdleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

// Close releases subscribers and cancels board fetches.
func (w *Workspace) Close() {
	w.Session.Close()
	w.Board.Close()
}
