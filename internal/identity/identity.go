package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is what a user may do on the marketplace.
type Role string

const (
	RoleArtist Role = "artist"
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"

	// RoleSystem is never stored; it marks calls made by the payment orchestrator.
	RoleSystem Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleArtist, RoleClient, RoleAdmin:
		return true
	}

	return false
}

type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Approved     bool
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName is the name shown to the other party in messages.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}

	return u.Email
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, Name: u.DisplayName()}
}

// Actor is the caller of an operation, passed explicitly into every core call.
type Actor struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// System is the actor the payment orchestrator uses when it confirms a payment.
var System = Actor{Role: RoleSystem, Name: "payments"}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}
