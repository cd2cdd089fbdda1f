package handlers

import (
	"net/http"

	"trello-project/web-client/logging"
	"trello-project/web-client/models"
)

func (h *Handler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	statuses, err := workspaceFrom(r).Board.Project(projectID).Statuses.Fetch(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to load statuses")
		return
	}
	if statuses == nil {
		statuses = []models.TaskStatus{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var in models.StatusInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to create status")
		return
	}
	ws := workspaceFrom(r)
	status, err := ws.Settings.CreateStatus(r.Context(), projectID, in)
	if err != nil {
		fail(w, r, err, "Failed to create status")
		return
	}
	ws.Board.Project(projectID).Statuses.Update(func(list []models.TaskStatus) []models.TaskStatus {
		return append(list, *status)
	})
	writeJSON(w, http.StatusCreated, status)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	projectID, statusID, err := settingIDs(r, "statusId")
	if err != nil {
		writeError(w, err, "Invalid status")
		return
	}
	var in models.StatusInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to update status")
		return
	}
	ws := workspaceFrom(r)
	status, err := ws.Settings.UpdateStatus(r.Context(), projectID, statusID, in)
	if err != nil {
		fail(w, r, err, "Failed to update status")
		return
	}
	h.reloadStatuses(r, projectID)
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	projectID, statusID, err := settingIDs(r, "statusId")
	if err != nil {
		writeError(w, err, "Invalid status")
		return
	}
	if err := workspaceFrom(r).Settings.DeleteStatus(r.Context(), projectID, statusID); err != nil {
		fail(w, r, err, "Failed to delete status")
		return
	}
	h.reloadStatuses(r, projectID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetDefaultStatus(w http.ResponseWriter, r *http.Request) {
	projectID, statusID, err := settingIDs(r, "statusId")
	if err != nil {
		writeError(w, err, "Invalid status")
		return
	}
	status, err := workspaceFrom(r).Settings.SetDefaultStatus(r.Context(), projectID, statusID)
	if err != nil {
		fail(w, r, err, "Failed to set default status")
		return
	}
	h.reloadStatuses(r, projectID)
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) ListPriorities(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	priorities, err := workspaceFrom(r).Settings.ListPriorities(r.Context(), projectID)
	if err != nil {
		fail(w, r, err, "Failed to load priorities")
		return
	}
	if priorities == nil {
		priorities = []models.TaskPriority{}
	}
	writeJSON(w, http.StatusOK, priorities)
}

func (h *Handler) CreatePriority(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var in models.PriorityInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to create priority")
		return
	}
	priority, err := workspaceFrom(r).Settings.CreatePriority(r.Context(), projectID, in)
	if err != nil {
		fail(w, r, err, "Failed to create priority")
		return
	}
	writeJSON(w, http.StatusCreated, priority)
}

func (h *Handler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	projectID, priorityID, err := settingIDs(r, "priorityId")
	if err != nil {
		writeError(w, err, "Invalid priority")
		return
	}
	var in models.PriorityInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to update priority")
		return
	}
	priority, err := workspaceFrom(r).Settings.UpdatePriority(r.Context(), projectID, priorityID, in)
	if err != nil {
		fail(w, r, err, "Failed to update priority")
		return
	}
	writeJSON(w, http.StatusOK, priority)
}

func (h *Handler) DeletePriority(w http.ResponseWriter, r *http.Request) {
	projectID, priorityID, err := settingIDs(r, "priorityId")
	if err != nil {
		writeError(w, err, "Invalid priority")
		return
	}
	if err := workspaceFrom(r).Settings.DeletePriority(r.Context(), projectID, priorityID); err != nil {
		fail(w, r, err, "Failed to delete priority")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetDefaultPriority(w http.ResponseWriter, r *http.Request) {
	projectID, priorityID, err := settingIDs(r, "priorityId")
	if err != nil {
		writeError(w, err, "Invalid priority")
		return
	}
	priority, err := workspaceFrom(r).Settings.SetDefaultPriority(r.Context(), projectID, priorityID)
	if err != nil {
		fail(w, r, err, "Failed to set default priority")
		return
	}
	writeJSON(w, http.StatusOK, priority)
}

func settingIDs(r *http.Request, name string) (int64, int64, error) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(r, name)
	if err != nil {
		return 0, 0, err
	}
	return projectID, id, nil
}

// reloadStatuses keeps the board's column set in line with the settings page.
func (h *Handler) reloadStatuses(r *http.Request, projectID int64) {
	b := workspaceFrom(r).Board.Project(projectID)
	if _, loaded := b.Statuses.Get(); !loaded {
		return
	}
	if _, err := b.Statuses.Fetch(r.Context()); err != nil {
		logging.Logger.Warnf("Event ID: STATUS_RELOAD_FAILED, Description: Reloading statuses of project %d failed: %v", projectID, err)
	}
}
