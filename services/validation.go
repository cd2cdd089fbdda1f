package services

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"trello-project/web-client/models"
)

const (
	minPasswordLength    = 6
	minUsernameLength    = 3
	maxUsernameLength    = 50
	minProjectNameLength = 3
)

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

func validEmail(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return &ValidationError{Field: field, Message: field + " must be a valid email address"}
	}
	return nil
}

func minLength(field, value string, n int) error {
	if utf8.RuneCountInString(value) < n {
		return &ValidationError{Field: field, Message: field + " is too short"}
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func ValidateCredentials(c models.Credentials) error {
	return firstError(
		validEmail("email", c.Email),
		required("password", c.Password),
		minLength("password", c.Password, minPasswordLength),
	)
}

func ValidateRegistration(r models.Registration) error {
	err := firstError(
		required("username", r.Username),
		minLength("username", r.Username, minUsernameLength),
	)
	if err != nil {
		return err
	}
	if utf8.RuneCountInString(r.Username) > maxUsernameLength {
		return &ValidationError{Field: "username", Message: "username is too long"}
	}
	return firstError(
		validEmail("email", r.Email),
		required("password", r.Password),
		minLength("password", r.Password, minPasswordLength),
	)
}

func ValidateProject(p models.ProjectInput) error {
	return firstError(
		required("name", p.Name),
		minLength("name", strings.TrimSpace(p.Name), minProjectNameLength),
		required("description", p.Description),
		required("startDate", p.StartDate),
	)
}

func ValidateInvite(r models.InviteRequest) error {
	if err := validEmail("email", r.Email); err != nil {
		return err
	}
	if !r.Role.Valid() {
		return &ValidationError{Field: "role", Message: "role must be ADMIN, MEMBER or OBSERVER"}
	}
	return nil
}

// ValidateTask checks a create form. Updates are partial and skip it.
func ValidateTask(t models.TaskInput) error {
	if err := required("name", t.Name); err != nil {
		return err
	}
	if err := required("dueDate", t.DueDate); err != nil {
		return err
	}
	switch {
	case t.ProjectID == 0:
		return &ValidationError{Field: "projectId", Message: "projectId is required"}
	case t.StatusID == 0:
		return &ValidationError{Field: "statusId", Message: "statusId is required"}
	case t.PriorityID == 0:
		return &ValidationError{Field: "priorityId", Message: "priorityId is required"}
	}
	return nil
}

func ValidateStatus(s models.StatusInput) error {
	return required("name", s.Name)
}

func ValidatePriority(p models.PriorityInput) error {
	return required("name", p.Name)
}
