package model

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	// Favorites holds the posts this user has liked, resolved on read.
	// Set semantics: a post appears at most once.
	Favorites []Post `json:"favorites"`
}

// SignUpArgs are the variables for the signUp operation.
type SignUpArgs struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInArgs are the variables for the signIn operation.
type SignInArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrInvalidCredentials is returned when the password does not match the stored hash
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingFields is returned when signup arguments are incomplete
	ErrMissingFields = errors.New("username, email and password are required")
)
