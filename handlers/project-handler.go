package handlers

import (
	"net/http"

	"trello-project/web-client/models"
)

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := workspaceFrom(r).Projects.ListProjects(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to load projects")
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var in models.ProjectInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to create project")
		return
	}
	project, err := workspaceFrom(r).Projects.CreateProject(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Failed to create project")
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	project, err := workspaceFrom(r).Projects.GetProject(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Failed to load project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var in models.ProjectInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to update project")
		return
	}
	project, err := workspaceFrom(r).Projects.UpdateProject(r.Context(), id, in)
	if err != nil {
		fail(w, r, err, "Failed to update project")
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	ws := workspaceFrom(r)
	if err := ws.Projects.DeleteProject(r.Context(), id); err != nil {
		fail(w, r, err, "Failed to delete project")
		return
	}
	ws.Board.Invalidate(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	members, err := workspaceFrom(r).Projects.ListMembers(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Failed to load members")
		return
	}
	if members == nil {
		members = []models.ProjectMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *Handler) InviteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var in models.InviteRequest
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to invite member")
		return
	}
	member, err := workspaceFrom(r).Projects.InviteMember(r.Context(), id, in)
	if err != nil {
		fail(w, r, err, "Failed to invite member")
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

func (h *Handler) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, err, "Invalid member")
		return
	}
	var body struct {
		Role models.MemberRole `json:"role"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "Failed to change role")
		return
	}
	member, err := workspaceFrom(r).Projects.ChangeMemberRole(r.Context(), projectID, userID, body.Role)
	if err != nil {
		fail(w, r, err, "Failed to change role")
		return
	}
	writeJSON(w, http.StatusOK, member)
}
