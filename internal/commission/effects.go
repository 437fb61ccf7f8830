package commission

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/transaction"
)

// dispatcher carries out the effects returned by Apply.
type dispatcher struct {
	notifier Notifier
	logger   zerolog.Logger
}

// record writes RecordPayment effects inside uow so money and state commit together.
func (d *dispatcher) record(ctx context.Context, uow UnitOfWork, c *Commission, effects []Effect) ([]*transaction.Transaction, error) {
	var txs []*transaction.Transaction

	for _, e := range effects {
		p, ok := e.(RecordPayment)
		if !ok {
			continue
		}

		tx := &transaction.Transaction{
			CommissionID:    c.ID,
			PayerID:         p.PayerID,
			Amount:          p.Amount,
			Type:            p.Type,
			Mode:            p.Mode,
			Status:          transaction.StatusCompleted,
			Description:     p.Description,
			CommissionCode:  c.Code,
			CommissionTitle: c.Title,
			ArtistID:        c.ArtistID,
		}

		if p.ExternalReference != "" {
			tx.ExternalReference = new(p.ExternalReference)
		}

		if err := uow.RecordTransaction(ctx, tx); err != nil {
			return nil, fmt.Errorf("record %s transaction: %w", p.Type, err)
		}

		txs = append(txs, tx)
	}

	return txs, nil
}

// notify sends Notify effects. A failed notification never undoes a committed transition.
func (d *dispatcher) notify(ctx context.Context, c *Commission, effects []Effect) {
	for _, e := range effects {
		n, ok := e.(Notify)
		if !ok {
			continue
		}

		_, err := d.notifier.Notify(ctx, notification.CreateParams{
			ReceiverID:   n.Receiver,
			CommissionID: new(c.ID),
			Type:         n.Type,
			Message:      n.Message,
		})
		if err != nil {
			d.logger.Warn().
				Err(err).
				Str("commission", c.Code).
				Str("type", string(n.Type)).
				Msg("notification dispatch failed")
		}
	}
}
