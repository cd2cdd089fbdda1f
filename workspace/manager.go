package workspace

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"trello-project/web-client/config"
	"trello-project/web-client/logging"
)

const CookieName = "wc_workspace"

type Manager struct {
	cfg     config.Config
	backend http.RoundTripper
	now     func() time.Time

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewManager(cfg config.Config, backend http.RoundTripper) *Manager {
	return &Manager{
		cfg:     cfg,
		backend: backend,
		now:     time.Now,
		spaces:  make(map[string]*Workspace),
	}
}

// Resolve returns the caller's workspace, creating one (and its cookie) on
// the first visit or when the old one was swept.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (*Workspace, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if ws, ok := m.Get(c.Value); ok {
			ws.Touch(m.now())
			return ws, nil
		}
	}

	id := uuid.New().String()
	ws, err := New(id, m.cfg, m.backend)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.spaces[id] = ws
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	logging.Logger.Debugf("Event ID: WORKSPACE_CREATED, Description: Workspace %s created", id)
	return ws, nil
}

func (m *Manager) Get(id string) (*Workspace, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.spaces[id]
	return ws, ok
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.spaces)
}

// Remove tears the workspace down.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	ws, ok := m.spaces[id]
	delete(m.spaces, id)
	m.mu.Unlock()
	if ok {
		ws.Close()
		logging.Logger.Debugf("Event ID: WORKSPACE_REMOVED, Description: Workspace %s removed", id)
	}
}

// Sweep removes workspaces idle for longer than the configured TTL.
func (m *Manager) Sweep() int {
	if m.cfg.WorkspaceIdleTTL <= 0 {
		return 0
	}
	now := m.now()
	var idle []string
	m.mu.Lock()
	for id, ws := range m.spaces {
		if ws.IdleSince(now) > m.cfg.WorkspaceIdleTTL {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	for _, id := range idle {
		m.Remove(id)
	}
	if len(idle) > 0 {
		logging.Logger.Infof("Event ID: WORKSPACE_SWEEP, Description: Removed %d idle workspaces", len(idle))
	}
	return len(idle)
}

// Run sweeps on every tick until ctx is done, then closes all workspaces.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	spaces := m.spaces
	m.spaces = make(map[string]*Workspace)
	m.mu.Unlock()
	for _, ws := range spaces {
		ws.Close()
	}
}
