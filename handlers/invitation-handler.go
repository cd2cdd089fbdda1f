package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

var timeNow = time.Now

func projectPath(id int64) string {
	return fmt.Sprintf("/projects/%d", id)
}

// InvitationDetails is public: the invitee may not have an account yet.
func (h *Handler) InvitationDetails(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	inv, err := ws.Invitations.Details(r.Context(), mux.Vars(r)["token"])
	redirectFrom(r).Take()
	if err != nil {
		writeError(w, err, "Failed to load invitation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invitation":    inv,
		"expired":       inv.Expired(timeNow()),
		"acceptable":    inv.Acceptable(timeNow()),
		"authenticated": ws.Session.IsAuthenticated(),
	})
}

func (h *Handler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r)
	token := mux.Vars(r)["token"]

	known, err := ws.Invitations.Details(r.Context(), token)
	if err != nil {
		known = nil
	}
	resp, err := ws.Invitations.Accept(r.Context(), token, known)
	if err != nil {
		fail(w, r, err, "Failed to accept invitation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":     resp,
		"redirectTo": projectPath(resp.Project.ID),
	})
}
