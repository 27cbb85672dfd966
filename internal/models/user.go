package models

// User holds the contact data needed for reminder and alert delivery.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
