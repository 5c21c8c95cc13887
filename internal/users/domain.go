package users

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// User represents a portal account as managed on the user management page.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Station    string    `json:"station"`
	EmployeeID string    `json:"employee_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ErrEmailTaken indicates the email is already registered.
var ErrEmailTaken = errors.New("email already registered")
