package handlers

import (
	"net/http"
	"strings"

	"trello-project/web-client/logging"
	"trello-project/web-client/models"
	"trello-project/web-client/session"
	"trello-project/web-client/workspace"
)

const defaultLanding = "/projects"

type sessionView struct {
	Session    session.Session `json:"session"`
	RedirectTo string          `json:"redirectTo,omitempty"`
	Warning    string          `json:"warning,omitempty"`
}

// redirectTarget keeps post-login navigation on this site.
func redirectTarget(r *http.Request) string {
	target := r.URL.Query().Get("redirectTo")
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return defaultLanding
	}
	return target
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	view := sessionView{Session: ws.Session.Snapshot()}
	if view.Session.IsAuthenticated {
		view.RedirectTo = redirectTarget(r)
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		writeError(w, err, "Login failed")
		return
	}

	err := ws.Session.Login(r.Context(), creds)
	redirectFrom(r).Take()
	if err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{
			"error":   ws.Session.Error(),
			"session": ws.Session.Snapshot(),
		})
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Session: ws.Session.Snapshot(), RedirectTo: redirectTarget(r)})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	var reg models.Registration
	if err := decode(r, &reg); err != nil {
		writeError(w, err, "Registration failed")
		return
	}

	err := ws.Session.Register(r.Context(), reg)
	redirectFrom(r).Take()
	if err != nil {
		writeJSON(w, statusFor(err), map[string]interface{}{
			"error":   ws.Session.Error(),
			"session": ws.Session.Snapshot(),
		})
		return
	}

	view := sessionView{Session: ws.Session.Snapshot(), RedirectTo: "/login"}
	if view.Session.IsAuthenticated {
		view.RedirectTo = defaultLanding
	}
	writeJSON(w, http.StatusCreated, view)
}

// Logout always succeeds locally and tears the workspace down.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	view := sessionView{RedirectTo: "/login"}
	if err := ws.Session.Logout(r.Context()); err != nil {
		view.Warning = "Server logout failed; local session cleared"
	}
	view.Session = ws.Session.Snapshot()

	h.manager.Remove(ws.ID)
	http.SetCookie(w, &http.Cookie{Name: workspace.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	logging.Logger.Infof("Event ID: WORKSPACE_LOGOUT, Description: Workspace %s logged out", ws.ID)
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionView{Session: workspaceFrom(r).Session.Snapshot()})
}

// CheckSession asks the backend again, e.g. when the page is reloaded.
func (h *Handler) CheckSession(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	_ = ws.Session.CheckStatus(r.Context())
	redirectFrom(r).Take()
	writeJSON(w, http.StatusOK, sessionView{Session: ws.Session.Snapshot()})
}
