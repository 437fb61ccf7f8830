package notification

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies why a notification was sent.
type Type string

const (
	TypeCommissionRequest Type = "commission_request"
	TypeAccepted          Type = "accepted"
	TypeRejected          Type = "rejected"
	TypeAdvancePaid       Type = "advance_paid"
	TypeBalancePaid       Type = "balance_paid"
	TypeShipped           Type = "shipped"
	TypeDelivered         Type = "delivered"
	TypeCancelled         Type = "cancelled"
	TypeNewArtist         Type = "new_artist"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCommissionRequest, TypeAccepted, TypeRejected, TypeAdvancePaid, TypeBalancePaid,
		TypeShipped, TypeDelivered, TypeCancelled, TypeNewArtist:
		return true
	}

	return false
}

// Notification is a message addressed to one receiver. Only IsRead ever changes after creation.
// It is pushed to live sockets as is.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	ReceiverID   uuid.UUID  `json:"receiver_id"`
	CommissionID *uuid.UUID `json:"commission_id,omitempty"`
	Type         Type       `json:"type"`
	Message      string     `json:"message"`
	IsRead       bool       `json:"is_read"`
	CreatedAt    time.Time  `json:"created_at"`
}
