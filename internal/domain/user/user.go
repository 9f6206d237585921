package user

import (
	"errors"
	"time"
)

type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UpdatableColumns maps the profile fields a client may patch to their column.
// username, is_admin and the password hash are never updatable.
var UpdatableColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"phone":      "phone",
}

// RedactedPassword stands in for the password in full-record responses.
const RedactedPassword = "[redacted]"

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=1,max=64"`
	Password  string `json:"password" binding:"required,min=4,max=72"`
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required,max=32"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Summary is the listing view.
type Summary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Profile is the single-user read view.
type Profile struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Record is the full view returned after an update.
type Record struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	IsAdmin   bool   `json:"is_admin"`
	Password  string `json:"password"`
}

func (u User) Summary() Summary {
	return Summary{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

func (u User) Profile() Profile {
	return Profile{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

func (u User) Record() Record {
	return Record{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		IsAdmin:   u.IsAdmin,
		Password:  RedactedPassword,
	}
}

// NewFromRegisterRequest builds a non-admin user; the caller supplies the hash.
func NewFromRegisterRequest(req RegisterRequest, passwordHash string) User {
	now := time.Now().UTC()

	return User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		IsAdmin:      false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
