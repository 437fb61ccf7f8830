package commission

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
)

type commissionResponse struct {
	ID              uuid.UUID              `json:"id"`
	Code            string                 `json:"commission_id"`
	ClientID        uuid.UUID              `json:"client_id"`
	ArtistID        uuid.UUID              `json:"artist_id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	ReferenceImage  string                 `json:"reference_image,omitempty"`
	RequiredDate    string                 `json:"required_date"`
	DeliveryAddress string                 `json:"delivery_address,omitempty"`
	ContactPhone    string                 `json:"contact_phone,omitempty"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
	AdvanceAmount   decimal.Decimal        `json:"advance_amount"`
	RemainingAmount decimal.Decimal        `json:"remaining_amount"`
	AdvancePaid     bool                   `json:"advance_paid"`
	BalancePaid     bool                   `json:"balance_paid"`
	PaymentMode     commission.PaymentMode `json:"payment_mode,omitempty"`
	Status          commission.Status      `json:"status"`

	RejectionReason    string           `json:"rejection_reason,omitempty"`
	CancellationReason string           `json:"cancellation_reason,omitempty"`
	CancelledBy        commission.Party `json:"cancelled_by,omitempty"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
	AdvancePaidAt *time.Time `json:"advance_paid_at,omitempty"`
	InProgressAt  *time.Time `json:"in_progress_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ShippingAt    *time.Time `json:"shipping_at,omitempty"`
	DeliveredAt   *time.Time `json:"delivered_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	BalancePaidAt *time.Time `json:"balance_paid_at,omitempty"`
}

func toResponse(c *commission.Commission) commissionResponse {
	return commissionResponse{
		ID:                 c.ID,
		Code:               c.Code,
		ClientID:           c.ClientID,
		ArtistID:           c.ArtistID,
		Title:              c.Title,
		Description:        c.Description,
		ReferenceImage:     c.ReferenceImage,
		RequiredDate:       c.RequiredDate.Format(time.DateOnly),
		DeliveryAddress:    c.DeliveryAddress,
		ContactPhone:       c.ContactPhone,
		TotalPrice:         c.TotalPrice,
		AdvanceAmount:      c.AdvanceAmount,
		RemainingAmount:    c.Remaining(),
		AdvancePaid:        c.AdvancePaid,
		BalancePaid:        c.BalancePaid,
		PaymentMode:        c.PaymentMode,
		Status:             c.Status,
		RejectionReason:    c.RejectionReason,
		CancellationReason: c.CancellationReason,
		CancelledBy:        c.CancelledBy,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		AcceptedAt:         c.AcceptedAt,
		AdvancePaidAt:      c.AdvancePaidAt,
		InProgressAt:       c.InProgressAt,
		CompletedAt:        c.CompletedAt,
		ShippingAt:         c.ShippingAt,
		DeliveredAt:        c.DeliveredAt,
		RejectedAt:         c.RejectedAt,
		CancelledAt:        c.CancelledAt,
		BalancePaidAt:      c.BalancePaidAt,
	}
}

func toResponseList(cs []*commission.Commission) []commissionResponse {
	resp := make([]commissionResponse, len(cs))
	for i, c := range cs {
		resp[i] = toResponse(c)
	}

	return resp
}
