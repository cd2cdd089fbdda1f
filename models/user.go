package models

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is what the session endpoints return. Login, check and refresh
// send userId; register returns the saved user with id.
type AuthResponse struct {
	UserID    int64  `json:"userId"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	TokenType string `json:"tokenType"`
}

// Identity returns the user carried by the response, or nil when the
// response holds no valid user id.
func (r *AuthResponse) Identity() *User {
	if r == nil {
		return nil
	}
	id := r.UserID
	if id == 0 {
		id = r.ID
	}
	if id == 0 {
		return nil
	}
	return &User{ID: id, Username: r.Username, Email: r.Email}
}
