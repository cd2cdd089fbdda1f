package board

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"trello-project/web-client/models"
)

// TaskFilter narrows the list view. Zero fields match everything.
type TaskFilter struct {
	StatusID   int64
	PriorityID int64
	AssigneeID int64
	Search     string
}

func ParseFilter(values url.Values) (TaskFilter, error) {
	var f TaskFilter
	var err error
	if f.StatusID, err = parseID(values, "statusId"); err != nil {
		return f, err
	}
	if f.PriorityID, err = parseID(values, "priorityId"); err != nil {
		return f, err
	}
	if f.AssigneeID, err = parseID(values, "assigneeId"); err != nil {
		return f, err
	}
	f.Search = strings.TrimSpace(values.Get("search"))
	return f, nil
}

func parseID(values url.Values, key string) (int64, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return id, nil
}

func (f TaskFilter) Matches(t models.Task) bool {
	if f.StatusID != 0 && t.StatusID() != f.StatusID {
		return false
	}
	if f.PriorityID != 0 && t.PriorityID() != f.PriorityID {
		return false
	}
	if f.AssigneeID != 0 && t.AssigneeID() != f.AssigneeID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Name), needle) && !strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func (f TaskFilter) Apply(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
