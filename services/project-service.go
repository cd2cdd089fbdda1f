package services

import (
	"context"
	"fmt"

	"trello-project/web-client/models"
)

type ProjectService struct {
	api *APIClient
}

func NewProjectService(api *APIClient) *ProjectService {
	return &ProjectService{api: api}
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := s.api.Get(ctx, "/projects", nil, &projects); err != nil {
		return nil, fmt.Errorf("failed to fetch projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	if err := s.api.Get(ctx, fmt.Sprintf("/projects/%d", id), nil, &project); err != nil {
		return nil, fmt.Errorf("failed to fetch project %d: %w", id, err)
	}
	return &project, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	if err := ValidateProject(in); err != nil {
		return nil, err
	}
	var project models.Project
	if err := s.api.Post(ctx, "/projects", in, &project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, id int64, in models.ProjectInput) (*models.Project, error) {
	if err := ValidateProject(in); err != nil {
		return nil, err
	}
	var project models.Project
	if err := s.api.Put(ctx, fmt.Sprintf("/projects/%d", id), in, &project); err != nil {
		return nil, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	return &project, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/projects/%d", id)); err != nil {
		return fmt.Errorf("failed to delete project %d: %w", id, err)
	}
	return nil
}

func (s *ProjectService) ListMembers(ctx context.Context, projectID int64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := s.api.Get(ctx, fmt.Sprintf("/projects/%d/members", projectID), nil, &members); err != nil {
		return nil, fmt.Errorf("failed to fetch members of project %d: %w", projectID, err)
	}
	return members, nil
}

// InviteMember sends an invitation email through the backend.
func (s *ProjectService) InviteMember(ctx context.Context, projectID int64, in models.InviteRequest) (*models.ProjectMember, error) {
	if err := ValidateInvite(in); err != nil {
		return nil, err
	}
	var member models.ProjectMember
	if err := s.api.Post(ctx, fmt.Sprintf("/projects/%d/members", projectID), in, &member); err != nil {
		return nil, fmt.Errorf("failed to invite %s to project %d: %w", in.Email, projectID, err)
	}
	return &member, nil
}

func (s *ProjectService) ChangeMemberRole(ctx context.Context, projectID, userID int64, role models.MemberRole) (*models.ProjectMember, error) {
	if !role.Valid() {
		return nil, &ValidationError{Field: "role", Message: "role must be ADMIN, MEMBER or OBSERVER"}
	}
	var member models.ProjectMember
	body := map[string]models.MemberRole{"role": role}
	if err := s.api.Post(ctx, fmt.Sprintf("/projects/%d/members/%d/role", projectID, userID), body, &member); err != nil {
		return nil, fmt.Errorf("failed to change role of user %d: %w", userID, err)
	}
	return &member, nil
}
