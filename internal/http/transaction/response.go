package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/transaction"
)

// Response is the wire form of a ledger entry.
type Response struct {
	ID                uuid.UUID          `json:"id"`
	CommissionID      uuid.UUID          `json:"commission_id"`
	CommissionCode    string             `json:"commission_code,omitempty"`
	CommissionTitle   string             `json:"commission_title,omitempty"`
	PayerID           uuid.UUID          `json:"payer_id"`
	Amount            decimal.Decimal    `json:"amount"`
	Type              transaction.Type   `json:"type"`
	Mode              transaction.Mode   `json:"mode"`
	Status            transaction.Status `json:"status"`
	Description       string             `json:"description"`
	ExternalReference *string            `json:"external_reference,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

type revenueResponse struct {
	Advance decimal.Decimal `json:"advance"`
	Balance decimal.Decimal `json:"balance"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

func ToResponse(tx *transaction.Transaction) Response {
	return Response{
		ID:                tx.ID,
		CommissionID:      tx.CommissionID,
		CommissionCode:    tx.CommissionCode,
		CommissionTitle:   tx.CommissionTitle,
		PayerID:           tx.PayerID,
		Amount:            tx.Amount,
		Type:              tx.Type,
		Mode:              tx.Mode,
		Status:            tx.Status,
		Description:       tx.Description,
		ExternalReference: tx.ExternalReference,
		CreatedAt:         tx.CreatedAt,
	}
}

func toResponseList(txs []*transaction.Transaction) []Response {
	resp := make([]Response, len(txs))
	for i, tx := range txs {
		resp[i] = ToResponse(tx)
	}

	return resp
}

func toRevenueResponse(r transaction.Revenue) revenueResponse {
	return revenueResponse{
		Advance: r.Advance,
		Balance: r.Balance,
		Total:   r.Total(),
		Count:   r.Count,
	}
}
