package models

import "fmt"

type HistoryAction string

const (
	ActionCreate         HistoryAction = "CREATE"
	ActionUpdate         HistoryAction = "UPDATE"
	ActionDelete         HistoryAction = "DELETE"
	ActionAssign         HistoryAction = "ASSIGN"
	ActionUnassign       HistoryAction = "UNASSIGN"
	ActionStatusChange   HistoryAction = "STATUS_CHANGE"
	ActionPriorityChange HistoryAction = "PRIORITY_CHANGE"
)

var actionLabels = map[HistoryAction]string{
	ActionCreate:         "Created",
	ActionUpdate:         "Updated",
	ActionDelete:         "Deleted",
	ActionAssign:         "Assigned",
	ActionUnassign:       "Unassigned",
	ActionStatusChange:   "Status Changed",
	ActionPriorityChange: "Priority Changed",
}

var fieldLabels = map[string]string{
	"name":        "Name",
	"description": "Description",
	"dueDate":     "Due Date",
	"assignee":    "Assignee",
	"status":      "Status",
	"priority":    "Priority",
	"task":        "Task",
}

type TaskHistory struct {
	ID         int64         `json:"id"`
	Task       *ProjectRef   `json:"task"`
	ModifiedBy *User         `json:"modifiedBy"`
	Action     HistoryAction `json:"action"`
	FieldName  string        `json:"fieldName"`
	OldValue   *string       `json:"oldValue"`
	NewValue   *string       `json:"newValue"`
	Timestamp  string        `json:"timestamp"`
	Comment    *string       `json:"comment"`
}

type TaskHistoryPage struct {
	Content       []TaskHistory `json:"content"`
	TotalElements int64         `json:"totalElements"`
	TotalPages    int           `json:"totalPages"`
	Size          int           `json:"size"`
	Number        int           `json:"number"`
	First         bool          `json:"first"`
	Last          bool          `json:"last"`
}

func (a HistoryAction) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// Summary renders one history entry as a short sentence.
func (h TaskHistory) Summary() string {
	action := h.Action.Label()
	field := FieldLabel(h.FieldName)
	oldValue, newValue := deref(h.OldValue), deref(h.NewValue)

	switch h.Action {
	case ActionCreate, ActionDelete:
		return action + " task"
	case ActionAssign, ActionUnassign:
		if newValue == "" {
			return action + " task"
		}
		return action + " " + newValue
	}

	switch {
	case oldValue != "" && newValue != "":
		return fmt.Sprintf("%s %s from %q to %q", action, field, oldValue, newValue)
	case newValue != "":
		return fmt.Sprintf("%s %s to %q", action, field, newValue)
	case oldValue != "":
		return fmt.Sprintf("%s %s from %q", action, field, oldValue)
	}
	return action + " " + field
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
