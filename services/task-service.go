package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"trello-project/web-client/models"
)

type TaskService struct {
	api *APIClient
}

func NewTaskService(api *APIClient) *TaskService {
	return &TaskService{api: api}
}

func (s *TaskService) FetchTasksByProject(ctx context.Context, projectID int64) ([]models.Task, error) {
	var tasks []models.Task
	if err := s.api.Get(ctx, fmt.Sprintf("/tasks/project/%d", projectID), nil, &tasks); err != nil {
		return nil, fmt.Errorf("failed to fetch tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	if err := s.api.Get(ctx, fmt.Sprintf("/tasks/%d", id), nil, &task); err != nil {
		return nil, fmt.Errorf("failed to fetch task %d: %w", id, err)
	}
	return &task, nil
}

func (s *TaskService) CreateTask(ctx context.Context, in models.TaskInput) (*models.Task, error) {
	if err := ValidateTask(in); err != nil {
		return nil, err
	}
	var task models.Task
	if err := s.api.Post(ctx, "/tasks", in, &task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, id int64, in models.TaskInput) (*models.Task, error) {
	var task models.Task
	if err := s.api.Put(ctx, fmt.Sprintf("/tasks/%d", id), in, &task); err != nil {
		return nil, fmt.Errorf("failed to update task %d: %w", id, err)
	}
	return &task, nil
}

func (s *TaskService) UpdateTaskStatus(ctx context.Context, id, statusID int64) (*models.Task, error) {
	return s.UpdateTask(ctx, id, models.TaskInput{StatusID: statusID})
}

func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/tasks/%d", id)); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

type HistoryService struct {
	api *APIClient
}

func NewHistoryService(api *APIClient) *HistoryService {
	return &HistoryService{api: api}
}

// TaskHistory returns one page of a task's history, page is 0-based.
func (s *HistoryService) TaskHistory(ctx context.Context, taskID int64, page, size int) (*models.TaskHistoryPage, error) {
	if size <= 0 {
		size = 20
	}
	query := url.Values{"page": {strconv.Itoa(page)}, "size": {strconv.Itoa(size)}}
	var result models.TaskHistoryPage
	if err := s.api.Get(ctx, fmt.Sprintf("/tasks/%d/history", taskID), query, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch history of task %d: %w", taskID, err)
	}
	return &result, nil
}

// AllTaskHistory asks for the unpaginated list (size=0).
func (s *HistoryService) AllTaskHistory(ctx context.Context, taskID int64) ([]models.TaskHistory, error) {
	var entries []models.TaskHistory
	query := url.Values{"size": {"0"}}
	if err := s.api.Get(ctx, fmt.Sprintf("/tasks/%d/history", taskID), query, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch history of task %d: %w", taskID, err)
	}
	return entries, nil
}
