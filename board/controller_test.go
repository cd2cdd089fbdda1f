package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trello-project/web-client/models"
	"trello-project/web-client/services"
)

var (
	statusTodo  = models.TaskStatus{ID: 3, Name: "To Do", OrderIndex: 0}
	statusDoing = models.TaskStatus{ID: 7, Name: "In Progress", OrderIndex: 1}
)

func task(id int64, status models.TaskStatus) models.Task {
	s := status
	return models.Task{ID: id, Name: "task", Status: &s, ProjectID: 1}
}

type fakeTaskAPI struct {
	mu        sync.Mutex
	tasks     []models.Task
	fetches   int
	updates   int
	updateErr error
	onUpdate  func()
	onFetch   func(ctx context.Context)
}

func (f *fakeTaskAPI) FetchTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	f.mu.Lock()
	f.fetches++
	hook := f.onFetch
	tasks := CloneTasks(f.tasks)
	f.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
	return tasks, nil
}

func (f *fakeTaskAPI) UpdateTaskStatus(ctx context.Context, id, statusID int64) (*models.Task, error) {
	f.mu.Lock()
	f.updates++
	hook := f.onUpdate
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	status := statusDoing
	status.ID = statusID
	updated := models.Task{ID: id, Name: "task (server)", Status: &status, ProjectID: 1}
	return &updated, nil
}

func (f *fakeTaskAPI) ListStatuses(ctx context.Context, projectID int64) ([]models.TaskStatus, error) {
	return []models.TaskStatus{statusTodo, statusDoing}, nil
}

func newBoard(t *testing.T, api *fakeTaskAPI) (*Controller, *ProjectBoard) {
	t.Helper()
	cache := NewCache(api, api)
	t.Cleanup(cache.Close)
	b := cache.Project(1)
	if _, err := b.Tasks.Fetch(context.Background()); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	if _, err := b.Statuses.Fetch(context.Background()); err != nil {
		t.Fatalf("load statuses: %v", err)
	}
	return NewController(cache, api), b
}

func cachedStatus(t *testing.T, b *ProjectBoard, taskID int64) int64 {
	t.Helper()
	tasks, _ := b.Tasks.Get()
	i := indexOf(tasks, taskID)
	if i < 0 {
		t.Fatalf("task %d missing from cache", taskID)
	}
	return tasks[i].StatusID()
}

func TestMoveTaskOptimisticThenConfirmed(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(42, statusTodo), task(43, statusDoing)}}
	ctrl, b := newBoard(t, api)

	var midFlight int64
	api.onUpdate = func() { midFlight = cachedStatus(t, b, 42) }

	updated, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 42, TargetStatusID: 7, Index: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if midFlight != 7 {
		t.Fatalf("cache must show the new status before the server answers, got %d", midFlight)
	}
	if got := cachedStatus(t, b, 42); got != 7 {
		t.Fatalf("expected confirmed status 7, got %d", got)
	}
	tasks, _ := b.Tasks.Get()
	if tasks[indexOf(tasks, 42)].Name != "task (server)" {
		t.Fatalf("cached entry must be replaced by the server response")
	}
	if updated.StatusID() != 7 {
		t.Fatalf("unexpected returned task %+v", updated)
	}
	if indexOf(tasks, 42) != 0 {
		t.Fatalf("task should sit first in its new group, order %v", tasks)
	}
}

func TestMoveTaskRollbackAndRefetch(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(42, statusTodo), task(43, statusDoing)}}
	ctrl, b := newBoard(t, api)
	api.updateErr = &services.APIError{Status: 409, Kind: services.KindConflict, Message: "Task is blocked"}

	var midFlight int64
	api.onUpdate = func() { midFlight = cachedStatus(t, b, 42) }

	_, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 42, TargetStatusID: 7})
	var moveErr *MoveError
	if !errors.As(err, &moveErr) {
		t.Fatalf("expected MoveError, got %v", err)
	}
	if moveErr.Message != "Task is blocked" {
		t.Fatalf("unexpected message %q", moveErr.Message)
	}
	if !errors.Is(err, services.ErrConflict) {
		t.Fatalf("cause must stay reachable")
	}
	if midFlight != 7 {
		t.Fatalf("optimistic write expected before failure, got %d", midFlight)
	}
	if got := cachedStatus(t, b, 42); got != 3 {
		t.Fatalf("expected rollback to status 3, got %d", got)
	}
	if api.fetches != 2 {
		t.Fatalf("expected a forced refetch after rollback, got %d fetches", api.fetches)
	}
}

func TestMoveTaskSameStatusNoNetwork(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(1, statusTodo), task(2, statusTodo), task(3, statusTodo)}}
	ctrl, b := newBoard(t, api)

	if _, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 3, TargetStatusID: 3, Index: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.updates != 0 {
		t.Fatalf("same-status move must not call the backend")
	}
	tasks, _ := b.Tasks.Get()
	if ids := taskIDs(tasks); ids != "3,1,2" {
		t.Fatalf("expected local reorder 3,1,2, got %s", ids)
	}
}

func TestMoveTaskUnknownStatusSkipsOptimisticWrite(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(42, statusTodo)}}
	ctrl, b := newBoard(t, api)

	var midFlight int64
	api.onUpdate = func() { midFlight = cachedStatus(t, b, 42) }

	if _, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 42, TargetStatusID: 99}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if midFlight != 3 {
		t.Fatalf("unknown target status must not be written ahead, got %d", midFlight)
	}
	if got := cachedStatus(t, b, 42); got != 99 {
		t.Fatalf("server answer must win, got %d", got)
	}
}

func TestMoveTaskMissingTask(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(1, statusTodo)}}
	ctrl, _ := newBoard(t, api)
	if _, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 5, TargetStatusID: 7}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestReadDuringMoveServesCache(t *testing.T) {
	api := &fakeTaskAPI{tasks: []models.Task{task(42, statusTodo), task(43, statusDoing)}}
	ctrl, b := newBoard(t, api)

	started := make(chan struct{})
	api.mu.Lock()
	api.onFetch = func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}
	api.mu.Unlock()

	type result struct {
		tasks []models.Task
		err   error
	}
	read := make(chan result, 1)
	go func() {
		tasks, err := b.Tasks.Fetch(context.Background())
		read <- result{tasks, err}
	}()
	<-started

	if _, err := ctrl.MoveTask(context.Background(), Move{ProjectID: 1, TaskID: 42, TargetStatusID: 7, Index: 0}); err != nil {
		t.Fatalf("move: %v", err)
	}

	select {
	case res := <-read:
		if res.err != nil {
			t.Fatalf("concurrent read must be served from the cache, got %v", res.err)
		}
		if len(res.tasks) != 2 {
			t.Fatalf("expected both tasks, got %v", res.tasks)
		}
	case <-time.After(time.Second):
		t.Fatalf("concurrent read did not return")
	}
	if got := cachedStatus(t, b, 42); got != 7 {
		t.Fatalf("the move must win over the cancelled read, got status %d", got)
	}
}
