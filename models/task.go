package models

type TaskStatus struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	OrderIndex  int    `json:"orderIndex"`
	IsDefault   bool   `json:"isDefault"`
}

type TaskPriority struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Level       int    `json:"level"`
	TodoState   string `json:"todoState,omitempty"`
	DoingState  string `json:"doingState,omitempty"`
	FinishState string `json:"finishState,omitempty"`
	IsDefault   bool   `json:"isDefault"`
}

// StatusInput and PriorityInput are the bodies of the settings endpoints.
// Zero values are omitted so updates stay partial.
type StatusInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	OrderIndex  *int   `json:"orderIndex,omitempty"`
}

type PriorityInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Level       *int   `json:"level,omitempty"`
	TodoState   string `json:"todoState,omitempty"`
	DoingState  string `json:"doingState,omitempty"`
	FinishState string `json:"finishState,omitempty"`
}

type ProjectRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type Task struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	DueDate     string        `json:"dueDate"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	Assignee    *User         `json:"assignee"`
	ProjectID   int64         `json:"projectId,omitempty"`
	Project     *ProjectRef   `json:"project,omitempty"`
	CreatedAt   string        `json:"createdAt,omitempty"`
	UpdatedAt   string        `json:"updatedAt,omitempty"`
}

// StatusID is zero for a task without a status.
func (t Task) StatusID() int64 {
	if t.Status == nil {
		return 0
	}
	return t.Status.ID
}

func (t Task) PriorityID() int64 {
	if t.Priority == nil {
		return 0
	}
	return t.Priority.ID
}

func (t Task) AssigneeID() int64 {
	if t.Assignee == nil {
		return 0
	}
	return t.Assignee.ID
}

// OwningProject prefers the flat projectId and falls back to the nested project.
func (t Task) OwningProject() int64 {
	if t.ProjectID != 0 {
		return t.ProjectID
	}
	if t.Project != nil {
		return t.Project.ID
	}
	return 0
}

type TaskInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"dueDate,omitempty"`
	StatusID    int64  `json:"statusId,omitempty"`
	PriorityID  int64  `json:"priorityId,omitempty"`
	AssigneeID  int64  `json:"assigneeId,omitempty"`
	ProjectID   int64  `json:"projectId,omitempty"`
}
