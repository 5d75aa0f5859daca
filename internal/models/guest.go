package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is an unauthenticated booking party, identified by an opaque access
// hash handed out at booking time instead of a login.
type Guest struct {
	ID         uuid.UUID `json:"id"`
	AccessHash string    `json:"-"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	CreatedAt  time.Time `json:"created_at"`
}
