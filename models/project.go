package models

type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
}

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
}

type MemberRole string

const (
	RoleAdmin    MemberRole = "ADMIN"
	RoleMember   MemberRole = "MEMBER"
	RoleObserver MemberRole = "OBSERVER"
)

func (r MemberRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleObserver:
		return true
	}
	return false
}

type ProjectMember struct {
	ID   int64      `json:"id"`
	User *User      `json:"user"`
	Role MemberRole `json:"role"`
}

type InviteRequest struct {
	Email string     `json:"email"`
	Role  MemberRole `json:"role"`
}
