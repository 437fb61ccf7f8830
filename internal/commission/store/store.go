package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/database"
	"github.com/RaniyaAK/arts/internal/transaction"
	txstore "github.com/RaniyaAK/arts/internal/transaction/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

const selectColumns = `
	id, code, client_id, artist_id, title, description, reference_image, required_date,
	delivery_address, contact_phone, total_price, advance_amount, advance_paid, balance_paid,
	payment_mode, status, rejection_reason, cancellation_reason, cancelled_by,
	created_at, updated_at, accepted_at, advance_paid_at, in_progress_at, completed_at,
	shipping_at, delivered_at, rejected_at, cancelled_at, balance_paid_at
`

func scanCommission(s scanner) (*commission.Commission, error) {
	var (
		c                            commission.Commission
		modeStr, statusStr, cancelBy string
	)

	if err := s.Scan(
		&c.ID, &c.Code, &c.ClientID, &c.ArtistID, &c.Title, &c.Description, &c.ReferenceImage, &c.RequiredDate,
		&c.DeliveryAddress, &c.ContactPhone, &c.TotalPrice, &c.AdvanceAmount, &c.AdvancePaid, &c.BalancePaid,
		&modeStr, &statusStr, &c.RejectionReason, &c.CancellationReason, &cancelBy,
		&c.CreatedAt, &c.UpdatedAt, &c.AcceptedAt, &c.AdvancePaidAt, &c.InProgressAt, &c.CompletedAt,
		&c.ShippingAt, &c.DeliveredAt, &c.RejectedAt, &c.CancelledAt, &c.BalancePaidAt,
	); err != nil {
		return nil, err
	}

	c.PaymentMode = commission.PaymentMode(modeStr)
	c.Status = commission.Status(statusStr)
	c.CancelledBy = commission.Party(cancelBy)

	return &c, nil
}

func getCommission(ctx context.Context, q querier, query string, id uuid.UUID) (*commission.Commission, error) {
	c, err := scanCommission(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, commission.ErrNotFound
		}

		return nil, fmt.Errorf("getting commission: %w", err)
	}

	return c, nil
}

// CreateCommission reserves the code and inserts the commission in one transaction.
func (s *Store) CreateCommission(ctx context.Context, c *commission.Commission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO commission_codes (code) VALUES ($1)`, c.Code); err != nil {
		if database.IsUniqueViolation(err, "commission_codes_pkey") {
			return commission.ErrDuplicateCode
		}

		return fmt.Errorf("reserving commission code: %w", err)
	}

	query := `
		INSERT INTO commissions (
			code, client_id, artist_id, title, description, reference_image, required_date,
			delivery_address, contact_phone, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRowContext(ctx, query,
		c.Code, c.ClientID, c.ArtistID, c.Title, c.Description, c.ReferenceImage, c.RequiredDate,
		c.DeliveryAddress, c.ContactPhone, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "commissions_code_key") {
			return commission.ErrDuplicateCode
		}

		return fmt.Errorf("creating commission: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing commission: %w", err)
	}

	return nil
}

func (s *Store) GetCommission(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	return getCommission(ctx, s.db, `SELECT `+selectColumns+` FROM commissions WHERE id = $1`, id)
}

func (s *Store) ListCommissions(ctx context.Context, filter commission.ListFilter) ([]*commission.Commission, error) {
	query := `SELECT ` + selectColumns + ` FROM commissions WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(" AND client_id = $%d", argIdx)
		args = append(args, *filter.ClientID)
		argIdx++
	}

	if filter.ArtistID != nil {
		query += fmt.Sprintf(" AND artist_id = $%d", argIdx)
		args = append(args, *filter.ArtistID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing commissions: %w", err)
	}
	defer rows.Close()

	var commissions []*commission.Commission

	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning commission: %w", err)
		}

		commissions = append(commissions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commissions: %w", err)
	}

	return commissions, nil
}

func (s *Store) CountByStatus(ctx context.Context) (map[commission.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM commissions GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting commissions: %w", err)
	}
	defer rows.Close()

	counts := make(map[commission.Status]int, len(commission.Statuses))

	for rows.Next() {
		var (
			status string
			n      int
		)

		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning commission count: %w", err)
		}

		counts[commission.Status(status)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating commission counts: %w", err)
	}

	return counts, nil
}

func (s *Store) GetPayment(ctx context.Context, commissionID uuid.UUID, kind transaction.Type) (*transaction.Transaction, error) {
	query := `SELECT ` + txstore.SelectColumns + `
		FROM transactions t
		JOIN commissions c ON c.id = t.commission_id
		WHERE t.commission_id = $1 AND t.transaction_type = $2`

	tx, err := txstore.Scan(s.db.QueryRowContext(ctx, query, commissionID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting %s payment: %w", kind, err)
	}

	return tx, nil
}

func (s *Store) Begin(ctx context.Context) (commission.UnitOfWork, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return &unitOfWork{tx: tx}, nil
}

type unitOfWork struct {
	tx *sql.Tx
}

// LockCommission reads the row with FOR UPDATE so concurrent transitions serialize.
func (u *unitOfWork) LockCommission(ctx context.Context, id uuid.UUID) (*commission.Commission, error) {
	return getCommission(ctx, u.tx, `SELECT `+selectColumns+` FROM commissions WHERE id = $1 FOR UPDATE`, id)
}

func (u *unitOfWork) UpdateCommission(ctx context.Context, c *commission.Commission) error {
	query := `
		UPDATE commissions SET
			total_price = $2, advance_amount = $3, advance_paid = $4, balance_paid = $5,
			payment_mode = $6, status = $7, rejection_reason = $8, cancellation_reason = $9,
			cancelled_by = $10, updated_at = $11, accepted_at = $12, advance_paid_at = $13,
			in_progress_at = $14, completed_at = $15, shipping_at = $16, delivered_at = $17,
			rejected_at = $18, cancelled_at = $19, balance_paid_at = $20
		WHERE id = $1
	`

	res, err := u.tx.ExecContext(ctx, query,
		c.ID, c.TotalPrice, c.AdvanceAmount, c.AdvancePaid, c.BalancePaid,
		c.PaymentMode, c.Status, c.RejectionReason, c.CancellationReason,
		c.CancelledBy, c.UpdatedAt, c.AcceptedAt, c.AdvancePaidAt,
		c.InProgressAt, c.CompletedAt, c.ShippingAt, c.DeliveredAt,
		c.RejectedAt, c.CancelledAt, c.BalancePaidAt,
	)
	if err != nil {
		return fmt.Errorf("updating commission: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}

	if n == 0 {
		return commission.ErrNotFound
	}

	return nil
}

func (u *unitOfWork) RecordTransaction(ctx context.Context, tx *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (
			commission_id, payer_id, amount, transaction_type, payment_mode, status, description, external_reference
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := u.tx.QueryRowContext(ctx, query,
		tx.CommissionID, tx.PayerID, tx.Amount, tx.Type, tx.Mode, tx.Status, tx.Description, tx.ExternalReference,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "transactions_commission_type_key") ||
			database.IsUniqueViolation(err, "transactions_external_reference_key") {
			return commission.ErrAlreadyPaid
		}

		return fmt.Errorf("recording transaction: %w", err)
	}

	return nil
}

func (u *unitOfWork) Commit() error {
	return u.tx.Commit()
}

func (u *unitOfWork) Rollback() error {
	err := u.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}
