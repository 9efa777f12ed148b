package user

import "time"

// User is a meetapp account. The same record acts as organizer of the
// meetups it creates and as attendee of the meetups it registers to.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UpdateInput carries a profile change. Empty fields are left untouched.
type UpdateInput struct {
	Name        string
	Email       string
	OldPassword string
	Password    string
}
