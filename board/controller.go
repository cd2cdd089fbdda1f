package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trello-project/web-client/logging"
	"trello-project/web-client/models"
	"trello-project/web-client/services"
)

const refetchTimeout = 15 * time.Second

var ErrTaskNotFound = errors.New("task not found on board")

type TaskAPI interface {
	FetchTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error)
	UpdateTaskStatus(ctx context.Context, id, statusID int64) (*models.Task, error)
}

type StatusAPI interface {
	ListStatuses(ctx context.Context, projectID int64) ([]models.TaskStatus, error)
}

// ProjectBoard holds the cached task and status collections of one project.
type ProjectBoard struct {
	ID       int64
	Tasks    *Query[[]models.Task]
	Statuses *Query[[]models.TaskStatus]

	moveMu sync.Mutex
}

// Cache keeps one ProjectBoard per project for a single visitor.
type Cache struct {
	tasks    TaskAPI
	statuses StatusAPI

	mu       sync.Mutex
	projects map[int64]*ProjectBoard
	closed   bool
}

func NewCache(tasks TaskAPI, statuses StatusAPI) *Cache {
	return &Cache{tasks: tasks, statuses: statuses, projects: make(map[int64]*ProjectBoard)}
}

func (c *Cache) Project(projectID int64) *ProjectBoard {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.projects[projectID]; ok {
		return b
	}
	b := &ProjectBoard{
		ID: projectID,
		Tasks: NewQuery(func(ctx context.Context) ([]models.Task, error) {
			return c.tasks.FetchTasksByProject(ctx, projectID)
		}, CloneTasks),
		Statuses: NewQuery(func(ctx context.Context) ([]models.TaskStatus, error) {
			return c.statuses.ListStatuses(ctx, projectID)
		}, func(s []models.TaskStatus) []models.TaskStatus {
			return append([]models.TaskStatus(nil), s...)
		}),
	}
	if !c.closed {
		c.projects[projectID] = b
	}
	return b
}

// Invalidate drops the cached collections of a project, for example after a
// task was created or deleted elsewhere.
func (c *Cache) Invalidate(projectID int64) {
	c.mu.Lock()
	b, ok := c.projects[projectID]
	delete(c.projects, projectID)
	c.mu.Unlock()
	if ok {
		b.Tasks.Close()
		b.Statuses.Close()
	}
}

func (c *Cache) Close() {
	c.mu.Lock()
	boards := c.projects
	c.projects = make(map[int64]*ProjectBoard)
	c.closed = true
	c.mu.Unlock()
	for _, b := range boards {
		b.Tasks.Close()
		b.Statuses.Close()
	}
}

// Move is one drag-and-drop: put the task into the target status group at
// Index (0-based position within that group).
type Move struct {
	ProjectID      int64 `json:"projectId"`
	TaskID         int64 `json:"taskId"`
	TargetStatusID int64 `json:"targetStatusId"`
	Index          int   `json:"index"`
}

// MoveError is returned when the server rejected a move. The board has
// already been rolled back when the caller sees it.
type MoveError struct {
	TaskID  int64
	Message string
	Err     error
}

func (e *MoveError) Error() string { return e.Message }
func (e *MoveError) Unwrap() error { return e.Err }

type Controller struct {
	cache *Cache
	api   TaskAPI
}

func NewController(cache *Cache, api TaskAPI) *Controller {
	return &Controller{cache: cache, api: api}
}

// MoveTask applies the move to the cache before the server confirms it and
// reconciles with the server's answer. Moves on one project run one at a
// time so a rollback never clobbers a later optimistic write.
func (c *Controller) MoveTask(ctx context.Context, m Move) (*models.Task, error) {
	b := c.cache.Project(m.ProjectID)
	b.moveMu.Lock()
	defer b.moveMu.Unlock()

	b.Tasks.Cancel()
	snapshot, err := b.Tasks.Ensure(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks of project %d: %w", m.ProjectID, err)
	}
	i := indexOf(snapshot, m.TaskID)
	if i < 0 {
		return nil, fmt.Errorf("task %d: %w", m.TaskID, ErrTaskNotFound)
	}
	current := snapshot[i]

	if current.StatusID() == m.TargetStatusID {
		b.Tasks.Update(func(tasks []models.Task) []models.Task {
			return Reorder(tasks, m.TaskID, m.Index)
		})
		return &current, nil
	}

	if statuses, ok := b.Statuses.Get(); ok {
		if target, known := FindStatus(statuses, m.TargetStatusID); known {
			b.Tasks.Update(func(tasks []models.Task) []models.Task {
				return Transfer(tasks, m.TaskID, target, m.Index)
			})
		}
	}

	updated, err := c.api.UpdateTaskStatus(ctx, m.TaskID, m.TargetStatusID)
	if err != nil {
		logging.Logger.Warnf("Event ID: TASK_MOVE_ROLLBACK, Description: Moving task %d to status %d failed, restoring board: %v", m.TaskID, m.TargetStatusID, err)
		b.Tasks.Set(snapshot)
		c.refetch(ctx, b)
		return nil, &MoveError{
			TaskID:  m.TaskID,
			Message: services.MessageOr(err, "Failed to update task status"),
			Err:     err,
		}
	}

	b.Tasks.Update(func(tasks []models.Task) []models.Task {
		return Replace(tasks, *updated)
	})
	logging.Logger.Infof("Event ID: TASK_MOVED, Description: Task %d moved to status %d", m.TaskID, m.TargetStatusID)
	return updated, nil
}

// refetch reloads the task list after a rollback. It outlives a cancelled
// request context but is bounded by refetchTimeout.
func (c *Controller) refetch(ctx context.Context, b *ProjectBoard) {
	refetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refetchTimeout)
	defer cancel()
	if _, err := b.Tasks.Fetch(refetchCtx); err != nil {
		logging.Logger.Warnf("Event ID: TASK_REFETCH_FAILED, Description: Refetch of project %d failed: %v", b.ID, err)
	}
}
