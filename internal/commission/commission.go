package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a commission.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusAdvancePaid Status = "advance_paid"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusShipping    Status = "shipping"
	StatusDelivered   Status = "delivered"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending, StatusAccepted, StatusAdvancePaid, StatusInProgress, StatusCompleted,
	StatusShipping, StatusDelivered, StatusRejected, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}

	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusRejected || s == StatusCancelled
}

// PaymentMode is how the client settles the balance. Empty means not chosen yet.
type PaymentMode string

const (
	PaymentModeUnset   PaymentMode = ""
	PaymentModeOnline  PaymentMode = "online"
	PaymentModeOffline PaymentMode = "offline"
)

// Party names a side of the commission.
type Party string

const (
	PartyClient Party = "client"
	PartyArtist Party = "artist"
)

type Commission struct {
	ID       uuid.UUID
	Code     string
	ClientID uuid.UUID
	ArtistID uuid.UUID

	Title           string
	Description     string
	ReferenceImage  string
	RequiredDate    time.Time
	DeliveryAddress string
	ContactPhone    string

	TotalPrice    decimal.Decimal
	AdvanceAmount decimal.Decimal
	AdvancePaid   bool
	BalancePaid   bool
	PaymentMode   PaymentMode

	Status Status

	RejectionReason    string
	CancellationReason string
	CancelledBy        Party

	CreatedAt     time.Time
	UpdatedAt     time.Time
	AcceptedAt    *time.Time
	AdvancePaidAt *time.Time
	InProgressAt  *time.Time
	CompletedAt   *time.Time
	ShippingAt    *time.Time
	DeliveredAt   *time.Time
	RejectedAt    *time.Time
	CancelledAt   *time.Time
	BalancePaidAt *time.Time
}

// Remaining is what the client still owes after the advance.
func (c *Commission) Remaining() decimal.Decimal {
	return c.TotalPrice.Sub(c.AdvanceAmount)
}

// PartyOf reports which side userID is on, if any.
func (c *Commission) PartyOf(userID uuid.UUID) (Party, bool) {
	switch userID {
	case c.ClientID:
		return PartyClient, true
	case c.ArtistID:
		return PartyArtist, true
	}

	return "", false
}

// Counterparty returns the user on the other side of p.
func (c *Commission) Counterparty(p Party) uuid.UUID {
	if p == PartyClient {
		return c.ArtistID
	}

	return c.ClientID
}

// stampFor returns the timestamp field recorded when the commission enters s.
func (c *Commission) stampFor(s Status) **time.Time {
	switch s {
	case StatusAccepted:
		return &c.AcceptedAt
	case StatusAdvancePaid:
		return &c.AdvancePaidAt
	case StatusInProgress:
		return &c.InProgressAt
	case StatusCompleted:
		return &c.CompletedAt
	case StatusShipping:
		return &c.ShippingAt
	case StatusDelivered:
		return &c.DeliveredAt
	case StatusRejected:
		return &c.RejectedAt
	case StatusCancelled:
		return &c.CancelledAt
	}

	return nil
}

// Check reports the first broken data invariant, if any.
func (c *Commission) Check() error {
	if !c.TotalPrice.IsZero() && c.AdvanceAmount.GreaterThan(c.TotalPrice) {
		return invariant("advance_amount exceeds total_price")
	}

	if c.TotalPrice.IsNegative() || c.AdvanceAmount.IsNegative() {
		return invariant("negative amount")
	}

	if c.AdvancePaid && !c.TotalPrice.IsPositive() {
		return invariant("advance_paid without total_price")
	}

	if c.BalancePaid {
		switch c.Status {
		case StatusCompleted, StatusShipping, StatusDelivered:
		default:
			return invariant("balance_paid before completion")
		}
	}

	terminal := 0
	for _, ts := range []*time.Time{c.RejectedAt, c.CancelledAt, c.DeliveredAt} {
		if ts != nil {
			terminal++
		}
	}

	if terminal > 1 {
		return invariant("more than one terminal timestamp")
	}

	return nil
}
