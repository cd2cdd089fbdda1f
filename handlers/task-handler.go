package handlers

import (
	"errors"
	"net/http"

	"trello-project/web-client/board"
	"trello-project/web-client/models"
	"trello-project/web-client/services"
)

type boardView struct {
	ProjectID int64          `json:"projectId"`
	Columns   []board.Column `json:"columns"`
}

type historyEntryView struct {
	models.TaskHistory
	Summary string `json:"summary"`
}

// ListTasks serves the list view, narrowed by statusId, priorityId,
// assigneeId and search.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	filter, err := board.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, &services.ValidationError{Field: "filter", Message: err.Error()}, "Invalid filter")
		return
	}
	tasks, err := h.projectTasks(r, projectID)
	if err != nil {
		fail(w, r, err, "Failed to load tasks")
		return
	}
	writeJSON(w, http.StatusOK, filter.Apply(tasks))
}

func (h *Handler) projectTasks(r *http.Request, projectID int64) ([]models.Task, error) {
	q := workspaceFrom(r).Board.Project(projectID).Tasks
	if r.URL.Query().Get("refresh") == "true" {
		return q.Fetch(r.Context())
	}
	return q.Ensure(r.Context())
}

func (h *Handler) Board(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	statuses, err := workspaceFrom(r).Board.Project(projectID).Statuses.Ensure(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to load statuses")
		return
	}
	tasks, err := h.projectTasks(r, projectID)
	if err != nil {
		fail(w, r, err, "Failed to load tasks")
		return
	}
	writeJSON(w, http.StatusOK, boardView{ProjectID: projectID, Columns: board.Columns(statuses, tasks)})
}

// MoveTask is the drag-and-drop endpoint. The body carries taskId,
// targetStatusId and index.
func (h *Handler) MoveTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var move board.Move
	if err := decode(r, &move); err != nil {
		writeError(w, err, "Failed to move task")
		return
	}
	move.ProjectID = projectID

	ws := workspaceFrom(r)
	task, err := ws.Moves.MoveTask(r.Context(), move)
	if err != nil {
		var moveErr *board.MoveError
		if errors.As(err, &moveErr) && !redirectFrom(r).Pending() {
			writeJSON(w, statusFor(moveErr.Err), map[string]interface{}{
				"error":  moveErr.Message,
				"taskId": moveErr.TaskID,
			})
			return
		}
		fail(w, r, err, "Failed to move task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeError(w, err, "Invalid project")
		return
	}
	var in models.TaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to create task")
		return
	}
	in.ProjectID = projectID

	ws := workspaceFrom(r)
	task, err := ws.Tasks.CreateTask(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Failed to create task")
		return
	}
	ws.Board.Project(projectID).Tasks.Update(func(tasks []models.Task) []models.Task {
		return append(tasks, *task)
	})
	writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, err, "Invalid task")
		return
	}
	task, err := workspaceFrom(r).Tasks.GetTask(r.Context(), taskID)
	if err != nil {
		fail(w, r, err, "Failed to load task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	projectID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, err, "Invalid task")
		return
	}
	var in models.TaskInput
	if err := decode(r, &in); err != nil {
		writeError(w, err, "Failed to update task")
		return
	}
	ws := workspaceFrom(r)
	task, err := ws.Tasks.UpdateTask(r.Context(), taskID, in)
	if err != nil {
		fail(w, r, err, "Failed to update task")
		return
	}
	ws.Board.Project(projectID).Tasks.Update(func(tasks []models.Task) []models.Task {
		return board.Replace(tasks, *task)
	})
	writeJSON(w, http.StatusOK, task)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	projectID, taskID, err := taskIDs(r)
	if err != nil {
		writeError(w, err, "Invalid task")
		return
	}
	ws := workspaceFrom(r)
	if err := ws.Tasks.DeleteTask(r.Context(), taskID); err != nil {
		fail(w, r, err, "Failed to delete task")
		return
	}
	ws.Board.Project(projectID).Tasks.Update(func(tasks []models.Task) []models.Task {
		return board.Remove(tasks, taskID)
	})
	w.WriteHeader(http.StatusNoContent)
}

// TaskHistory returns one page by default; all=true asks for every entry.
func (h *Handler) TaskHistory(w http.ResponseWriter, r *http.Request) {
	taskID, err := pathID(r, "taskId")
	if err != nil {
		writeError(w, err, "Invalid task")
		return
	}
	history := workspaceFrom(r).History

	if r.URL.Query().Get("all") == "true" {
		entries, err := history.AllTaskHistory(r.Context(), taskID)
		if err != nil {
			fail(w, r, err, "Failed to load task history")
			return
		}
		writeJSON(w, http.StatusOK, summarize(entries))
		return
	}

	page, err := history.TaskHistory(r.Context(), taskID, queryInt(r, "page", 0), queryInt(r, "size", 20))
	if err != nil {
		fail(w, r, err, "Failed to load task history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content":       summarize(page.Content),
		"totalElements": page.TotalElements,
		"totalPages":    page.TotalPages,
		"number":        page.Number,
		"size":          page.Size,
		"first":         page.First,
		"last":          page.Last,
	})
}

func summarize(entries []models.TaskHistory) []historyEntryView {
	out := make([]historyEntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryView{TaskHistory: e, Summary: e.Summary()})
	}
	return out
}

func taskIDs(r *http.Request) (int64, int64, error) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		return 0, 0, err
	}
	taskID, err := pathID(r, "taskId")
	if err != nil {
		return 0, 0, err
	}
	return projectID, taskID, nil
}
