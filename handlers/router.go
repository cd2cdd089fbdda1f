package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"trello-project/web-client/config"
)

// NewRouter wires the navigation routes. Everything under /projects, the
// invitation accept and the view stream sit behind the route guard.
func NewRouter(h *Handler, cfg config.Config) http.Handler {
	r := mux.NewRouter()
	r.Use(h.WithWorkspace)

	r.HandleFunc("/login", h.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/register", h.LoginPage).Methods(http.MethodGet)
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/session", h.SessionState).Methods(http.MethodGet)
	r.HandleFunc("/session/check", h.CheckSession).Methods(http.MethodPost)
	r.HandleFunc("/invitations/{token}", h.InvitationDetails).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	protected.Use(h.RequireSession)

	protected.HandleFunc("/invitations/{token}/accept", h.AcceptInvitation).Methods(http.MethodPost)
	protected.HandleFunc("/ws", h.Stream(cfg.AllowedOrigins)).Methods(http.MethodGet)

	protected.HandleFunc("/projects", h.ListProjects).Methods(http.MethodGet)
	protected.HandleFunc("/projects", h.CreateProject).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}", h.GetProject).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}", h.UpdateProject).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectId:[0-9]+}", h.DeleteProject).Methods(http.MethodDelete)

	protected.HandleFunc("/projects/{projectId:[0-9]+}/members", h.ListMembers).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/members", h.InviteMember).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/members/{userId:[0-9]+}/role", h.ChangeMemberRole).Methods(http.MethodPost)

	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/statuses", h.ListStatuses).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/statuses", h.CreateStatus).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/statuses/{statusId:[0-9]+}", h.UpdateStatus).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/statuses/{statusId:[0-9]+}", h.DeleteStatus).Methods(http.MethodDelete)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/statuses/{statusId:[0-9]+}/set-default", h.SetDefaultStatus).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/priorities", h.ListPriorities).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/priorities", h.CreatePriority).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/priorities/{priorityId:[0-9]+}", h.UpdatePriority).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/priorities/{priorityId:[0-9]+}", h.DeletePriority).Methods(http.MethodDelete)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/settings/priorities/{priorityId:[0-9]+}/set-default", h.SetDefaultPriority).Methods(http.MethodPost)

	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks", h.ListTasks).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks", h.CreateTask).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks/{taskId:[0-9]+}", h.GetTask).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks/{taskId:[0-9]+}", h.UpdateTask).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks/{taskId:[0-9]+}", h.DeleteTask).Methods(http.MethodDelete)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/tasks/{taskId:[0-9]+}/history", h.TaskHistory).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/board", h.Board).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{projectId:[0-9]+}/board/moves", h.MoveTask).Methods(http.MethodPost)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return otelhttp.NewHandler(c.Handler(r), cfg.ServiceName)
}
