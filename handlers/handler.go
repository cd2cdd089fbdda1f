package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"trello-project/web-client/board"
	"trello-project/web-client/logging"
	"trello-project/web-client/middleware"
	"trello-project/web-client/services"
	"trello-project/web-client/workspace"
)

type contextKey string

const (
	workspaceKey contextKey = "workspace"
	redirectKey  contextKey = "redirect"
)

// Handler serves the navigation routes. Every request runs against the
// caller's own workspace.
type Handler struct {
	manager *workspace.Manager
}

func NewHandler(manager *workspace.Manager) *Handler {
	return &Handler{manager: manager}
}

// WithWorkspace resolves the caller's workspace and stores it in the request
// context together with a login redirect owned by this request only.
func (h *Handler) WithWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := h.manager.Resolve(w, r)
		if err != nil {
			logging.Logger.Errorf("Event ID: WORKSPACE_ERROR, Description: Failed to resolve workspace: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		redirect := &workspace.LoginRedirect{}
		ctx := context.WithValue(r.Context(), workspaceKey, ws)
		ctx = context.WithValue(ctx, redirectKey, redirect)
		ctx = middleware.WithNavigator(ctx, redirect)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func workspaceFrom(r *http.Request) *workspace.Workspace {
	ws, _ := r.Context().Value(workspaceKey).(*workspace.Workspace)
	return ws
}

// redirectFrom returns the login redirect raised while serving r.
func redirectFrom(r *http.Request) *workspace.LoginRedirect {
	if redirect, ok := r.Context().Value(redirectKey).(*workspace.LoginRedirect); ok {
		return redirect
	}
	return &workspace.LoginRedirect{}
}

func loginLocation(r *http.Request) string {
	return "/login?redirectTo=" + url.QueryEscape(r.URL.RequestURI())
}

// RequireSession runs the route guard before protected routes. Page loads
// are redirected with 303; other methods get a 401 carrying the target.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws := workspaceFrom(r)
		if ws.Guard.CanActivate(r.Context(), r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		redirectFrom(r).Take()
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			http.Redirect(w, r, loginLocation(r), http.StatusSeeOther)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error":    "Authentication required",
			"redirect": loginLocation(r),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_ERROR, Description: %v", err)
	}
}

func statusFor(err error) int {
	var valErr *services.ValidationError
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvitationConsumed):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	if status := services.StatusOf(err); status != 0 {
		return status
	}
	if errors.Is(err, services.ErrConnectivity) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail answers a protected route's error. When the backend's 401 could not be
// recovered the session is dropped and the caller is sent to login.
func fail(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ws := workspaceFrom(r)
	if ws != nil {
		if reason, redirect := redirectFrom(r).Take(); redirect {
			ws.Session.Reset("Session expired")
			logging.Logger.Infof("Event ID: SESSION_EXPIRED, Description: %s on %s", reason, r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error":    "Session expired",
				"redirect": loginLocation(r),
			})
			return
		}
	}
	writeError(w, err, fallback)
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s: %v", fallback, err)
	}
	writeJSON(w, status, map[string]string{"error": services.MessageOr(err, fallback)})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &services.ValidationError{Field: "body", Message: "Invalid request body"}
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &services.ValidationError{Field: name, Message: fmt.Sprintf("Invalid %s", name)}
	}
	return id, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
