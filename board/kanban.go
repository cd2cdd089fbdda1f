package board

import (
	"sort"

	"trello-project/web-client/models"
)

type Column struct {
	Status *models.TaskStatus `json:"status"`
	Tasks  []models.Task      `json:"tasks"`
}

// SortStatuses orders statuses by orderIndex, then id.
func SortStatuses(statuses []models.TaskStatus) []models.TaskStatus {
	out := append([]models.TaskStatus(nil), statuses...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Columns groups tasks under their status in list order. Tasks whose status
// is missing or unknown end up in a trailing column without a status.
func Columns(statuses []models.TaskStatus, tasks []models.Task) []Column {
	sorted := SortStatuses(statuses)
	columns := make([]Column, len(sorted))
	byStatus := make(map[int64]int, len(sorted))
	for i := range sorted {
		columns[i] = Column{Status: &sorted[i], Tasks: []models.Task{}}
		byStatus[sorted[i].ID] = i
	}

	var orphans []models.Task
	for _, t := range tasks {
		if i, ok := byStatus[t.StatusID()]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
			continue
		}
		orphans = append(orphans, t)
	}
	if len(orphans) > 0 {
		columns = append(columns, Column{Tasks: orphans})
	}
	return columns
}

func FindStatus(statuses []models.TaskStatus, id int64) (*models.TaskStatus, bool) {
	for i := range statuses {
		if statuses[i].ID == id {
			s := statuses[i]
			return &s, true
		}
	}
	return nil, false
}
