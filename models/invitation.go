package models

import "time"

const InvitationPending = "PENDING"

type Invitation struct {
	ID                 int64  `json:"id"`
	Token              string `json:"token,omitempty"`
	Email              string `json:"email"`
	ProjectName        string `json:"projectName"`
	ProjectDescription string `json:"projectDescription,omitempty"`
	Role               string `json:"role"`
	InviterName        string `json:"inviterName"`
	Status             string `json:"status"`
	ExpiresAt          string `json:"expiresAt"`
}

// The backend serializes LocalDateTime without a zone; those are read as UTC.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Expiry parses ExpiresAt. ok is false when the field is empty or malformed.
func (i Invitation) Expiry() (t time.Time, ok bool) {
	if i.ExpiresAt == "" {
		return time.Time{}, false
	}
	for _, layout := range expiryLayouts {
		if parsed, err := time.Parse(layout, i.ExpiresAt); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func (i Invitation) Expired(now time.Time) bool {
	exp, ok := i.Expiry()
	return ok && now.After(exp)
}

// Acceptable reports whether the invitation can still be accepted. An empty
// status is treated as pending.
func (i Invitation) Acceptable(now time.Time) bool {
	if i.Expired(now) {
		return false
	}
	return i.Status == "" || i.Status == InvitationPending
}

type InvitationAcceptResponse struct {
	Member  *ProjectMember `json:"member"`
	Project ProjectRef     `json:"project"`
	Message string         `json:"message"`
}
