package board

import "trello-project/web-client/models"

// CloneTasks copies the list together with the nested status, priority and
// assignee so a snapshot never shares mutable state with the cache.
func CloneTasks(tasks []models.Task) []models.Task {
	if tasks == nil {
		return nil
	}
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		if t.Status != nil {
			s := *t.Status
			t.Status = &s
		}
		if t.Priority != nil {
			p := *t.Priority
			t.Priority = &p
		}
		if t.Assignee != nil {
			a := *t.Assignee
			t.Assignee = &a
		}
		if t.Project != nil {
			p := *t.Project
			t.Project = &p
		}
		out[i] = t
	}
	return out
}

func indexOf(tasks []models.Task, id int64) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Transfer moves the task to status and places it at index within that
// status group. Indexes past the end append to the group. An unknown task
// leaves the list unchanged.
func Transfer(tasks []models.Task, taskID int64, status *models.TaskStatus, index int) []models.Task {
	return splice(tasks, taskID, index, func(t *models.Task) {
		if status != nil {
			s := *status
			t.Status = &s
		}
	})
}

// Reorder moves the task to index within its current status group.
func Reorder(tasks []models.Task, taskID int64, index int) []models.Task {
	return splice(tasks, taskID, index, func(*models.Task) {})
}

func splice(tasks []models.Task, taskID int64, index int, rewrite func(*models.Task)) []models.Task {
	from := indexOf(tasks, taskID)
	if from < 0 {
		return tasks
	}
	moved := tasks[from]
	rewrite(&moved)

	rest := make([]models.Task, 0, len(tasks))
	rest = append(rest, tasks[:from]...)
	rest = append(rest, tasks[from+1:]...)

	var group []int
	for i := range rest {
		if rest[i].StatusID() == moved.StatusID() {
			group = append(group, i)
		}
	}

	var at int
	switch {
	case len(group) == 0:
		at = len(rest)
	case index <= 0:
		at = group[0]
	case index >= len(group):
		at = group[len(group)-1] + 1
	default:
		at = group[index]
	}

	out := make([]models.Task, 0, len(tasks))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	out = append(out, rest[at:]...)
	return out
}

// Replace swaps the cached entry with the server's version in place.
func Replace(tasks []models.Task, updated models.Task) []models.Task {
	i := indexOf(tasks, updated.ID)
	if i < 0 {
		return append(tasks, updated)
	}
	out := CloneTasks(tasks)
	out[i] = updated
	return out
}

func Remove(tasks []models.Task, taskID int64) []models.Task {
	i := indexOf(tasks, taskID)
	if i < 0 {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}
