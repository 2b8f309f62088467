package domain

// User is an account that can belong to book clubs.
// Accounts are created through an invite or by an operator with buddyctl.
type User struct {
	Timestamps
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// UserProfile is the public view of a user returned by the API.
type UserProfile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Profile strips credentials from the user.
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Username: u.Username}
}
