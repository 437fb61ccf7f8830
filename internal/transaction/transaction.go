package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type says which part of the price a transaction settles.
type Type string

const (
	TypeAdvance Type = "advance"
	TypeBalance Type = "balance"
)

func (t Type) Valid() bool {
	return t == TypeAdvance || t == TypeBalance
}

// Mode says how the money moved.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

func (m Mode) Valid() bool {
	return m == ModeOnline || m == ModeOffline
}

// Status of a ledger entry. Only completed payments are recorded.
type Status string

const StatusCompleted Status = "completed"

// Transaction is an immutable ledger entry for money paid against a commission.
type Transaction struct {
	ID                uuid.UUID
	CommissionID      uuid.UUID
	PayerID           uuid.UUID
	Amount            decimal.Decimal
	Type              Type
	Mode              Mode
	Status            Status
	Description       string
	ExternalReference *string
	CreatedAt         time.Time

	// Loaded via JOIN
	CommissionCode  string
	CommissionTitle string
	ArtistID        uuid.UUID
}

// Revenue sums completed transactions by type.
type Revenue struct {
	Advance decimal.Decimal
	Balance decimal.Decimal
	Count   int
}

func (r Revenue) Total() decimal.Decimal {
	return r.Advance.Add(r.Balance)
}
