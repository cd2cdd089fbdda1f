package services

import (
	"context"
	"fmt"

	"trello-project/web-client/models"
)

// SettingsService manages the per-project task statuses and priorities.
type SettingsService struct {
	api *APIClient
}

func NewSettingsService(api *APIClient) *SettingsService {
	return &SettingsService{api: api}
}

func statusesPath(projectID int64) string {
	return fmt.Sprintf("/projects/%d/settings/statuses", projectID)
}

func prioritiesPath(projectID int64) string {
	return fmt.Sprintf("/projects/%d/settings/priorities", projectID)
}

func (s *SettingsService) ListStatuses(ctx context.Context, projectID int64) ([]models.TaskStatus, error) {
	var statuses []models.TaskStatus
	if err := s.api.Get(ctx, statusesPath(projectID), nil, &statuses); err != nil {
		return nil, fmt.Errorf("failed to load project statuses: %w", err)
	}
	return statuses, nil
}

func (s *SettingsService) CreateStatus(ctx context.Context, projectID int64, in models.StatusInput) (*models.TaskStatus, error) {
	if err := ValidateStatus(in); err != nil {
		return nil, err
	}
	var status models.TaskStatus
	if err := s.api.Post(ctx, statusesPath(projectID), in, &status); err != nil {
		return nil, fmt.Errorf("failed to create task status: %w", err)
	}
	return &status, nil
}

func (s *SettingsService) UpdateStatus(ctx context.Context, projectID, statusID int64, in models.StatusInput) (*models.TaskStatus, error) {
	var status models.TaskStatus
	if err := s.api.Put(ctx, fmt.Sprintf("%s/%d", statusesPath(projectID), statusID), in, &status); err != nil {
		return nil, fmt.Errorf("failed to update task status %d: %w", statusID, err)
	}
	return &status, nil
}

func (s *SettingsService) DeleteStatus(ctx context.Context, projectID, statusID int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("%s/%d", statusesPath(projectID), statusID)); err != nil {
		return fmt.Errorf("failed to delete task status %d: %w", statusID, err)
	}
	return nil
}

func (s *SettingsService) SetDefaultStatus(ctx context.Context, projectID, statusID int64) (*models.TaskStatus, error) {
	var status models.TaskStatus
	if err := s.api.Post(ctx, fmt.Sprintf("%s/%d/set-default", statusesPath(projectID), statusID), struct{}{}, &status); err != nil {
		return nil, fmt.Errorf("failed to set default status: %w", err)
	}
	return &status, nil
}

func (s *SettingsService) ListPriorities(ctx context.Context, projectID int64) ([]models.TaskPriority, error) {
	var priorities []models.TaskPriority
	if err := s.api.Get(ctx, prioritiesPath(projectID), nil, &priorities); err != nil {
		return nil, fmt.Errorf("failed to load project priorities: %w", err)
	}
	return priorities, nil
}

func (s *SettingsService) CreatePriority(ctx context.Context, projectID int64, in models.PriorityInput) (*models.TaskPriority, error) {
	if err := ValidatePriority(in); err != nil {
		return nil, err
	}
	var priority models.TaskPriority
	if err := s.api.Post(ctx, prioritiesPath(projectID), in, &priority); err != nil {
		return nil, fmt.Errorf("failed to create task priority: %w", err)
	}
	return &priority, nil
}

func (s *SettingsService) UpdatePriority(ctx context.Context, projectID, priorityID int64, in models.PriorityInput) (*models.TaskPriority, error) {
	var priority models.TaskPriority
	if err := s.api.Put(ctx, fmt.Sprintf("%s/%d", prioritiesPath(projectID), priorityID), in, &priority); err != nil {
		return nil, fmt.Errorf("failed to update task priority %d: %w", priorityID, err)
	}
	return &priority, nil
}

func (s *SettingsService) DeletePriority(ctx context.Context, projectID, priorityID int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("%s/%d", prioritiesPath(projectID), priorityID)); err != nil {
		return fmt.Errorf("failed to delete task priority %d: %w", priorityID, err)
	}
	return nil
}

func (s *SettingsService) SetDefaultPriority(ctx context.Context, projectID, priorityID int64) (*models.TaskPriority, error) {
	var priority models.TaskPriority
	if err := s.api.Post(ctx, fmt.Sprintf("%s/%d/set-default", prioritiesPath(projectID), priorityID), struct{}{}, &priority); err != nil {
		return nil, fmt.Errorf("failed to set default priority: %w", err)
	}
	return &priority, nil
}
