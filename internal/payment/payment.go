package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/transaction"
)

// Intent correlates an in-flight provider payment with the commission it settles.
// Offline intents carry no reference and no redirect.
type Intent struct {
	ExternalReference string
	CommissionID      uuid.UUID
	Kind              transaction.Type
	Mode              commission.PaymentMode
	Amount            decimal.Decimal
	Currency          string
	RedirectURL       string
	CreatedAt         time.Time
}

// Online reports whether the client must be sent to the provider.
func (i *Intent) Online() bool {
	return i.Mode == commission.PaymentModeOnline
}

// CreateRequest asks the provider for a new payment the client can approve.
type CreateRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Invoice     string
	ReturnURL   string
	CancelURL   string
}

// Created is the provider's answer to a CreateRequest.
type Created struct {
	ID          string
	ApprovalURL string
}

// Execution is the provider's outcome of capturing an approved payment.
type Execution struct {
	ID       string
	State    string
	Amount   decimal.Decimal
	Currency string
}

// StateApproved is the provider state of a captured payment.
const StateApproved = "approved"
