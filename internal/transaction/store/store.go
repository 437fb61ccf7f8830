package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// SelectColumns is shared with the commission store, which reads back recorded payments inside its own tx.
// Expected FROM: transactions t JOIN commissions c ON c.id = t.commission_id
const SelectColumns = `
	t.id, t.commission_id, t.payer_id, t.amount, t.transaction_type, t.payment_mode, t.status,
	t.description, t.external_reference, t.created_at, c.code, c.title, c.artist_id
`

// Scan reads a row selected with SelectColumns.
func Scan(s scanner) (*transaction.Transaction, error) {
	var (
		tx                         transaction.Transaction
		typeStr, modeStr, statusSt string
		extRef                     sql.NullString
	)

	if err := s.Scan(
		&tx.ID, &tx.CommissionID, &tx.PayerID, &tx.Amount, &typeStr, &modeStr, &statusSt,
		&tx.Description, &extRef, &tx.CreatedAt, &tx.CommissionCode, &tx.CommissionTitle, &tx.ArtistID,
	); err != nil {
		return nil, err
	}

	tx.Type = transaction.Type(typeStr)
	tx.Mode = transaction.Mode(modeStr)
	tx.Status = transaction.Status(statusSt)

	if extRef.Valid {
		tx.ExternalReference = &extRef.String
	}

	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `SELECT ` + SelectColumns + `
		FROM transactions t
		JOIN commissions c ON c.id = t.commission_id
		WHERE t.id = $1`

	tx, err := Scan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrNotFound
		}

		return nil, fmt.Errorf("getting transaction: %w", err)
	}

	return tx, nil
}

func where(filter transaction.ListFilter) (string, []any) {
	clause := ` WHERE TRUE`

	var args []any

	argIdx := 1

	add := func(cond string, v any) {
		clause += fmt.Sprintf(" AND "+cond, argIdx)

		args = append(args, v)
		argIdx++
	}

	if filter.PayerID != nil {
		add("t.payer_id = $%d", *filter.PayerID)
	}

	if filter.ArtistID != nil {
		add("c.artist_id = $%d", *filter.ArtistID)
	}

	if filter.CommissionID != nil {
		add("t.commission_id = $%d", *filter.CommissionID)
	}

	if filter.Type != nil {
		add("t.transaction_type = $%d", *filter.Type)
	}

	if filter.StartDate != nil {
		add("t.created_at >= $%d", *filter.StartDate)
	}

	if filter.EndDate != nil {
		add("t.created_at <= $%d", *filter.EndDate)
	}

	return clause, args
}

func (s *Store) ListTransactions(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	clause, args := where(filter)

	query := `SELECT ` + SelectColumns + `
		FROM transactions t
		JOIN commissions c ON c.id = t.commission_id` + clause + `
		ORDER BY t.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.Transaction

	for rows.Next() {
		tx, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}

		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	return txs, nil
}

func (s *Store) SumRevenue(ctx context.Context, filter transaction.ListFilter) (transaction.Revenue, error) {
	clause, args := where(filter)

	query := `SELECT
			COALESCE(SUM(t.amount) FILTER (WHERE t.transaction_type = 'advance'), 0),
			COALESCE(SUM(t.amount) FILTER (WHERE t.transaction_type = 'balance'), 0),
			COUNT(*)
		FROM transactions t
		JOIN commissions c ON c.id = t.commission_id` + clause + ` AND t.status = 'completed'`

	var (
		rev              transaction.Revenue
		advance, balance decimal.Decimal
	)

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&advance, &balance, &rev.Count); err != nil {
		return transaction.Revenue{}, fmt.Errorf("summing revenue: %w", err)
	}

	rev.Advance = advance
	rev.Balance = balance

	return rev, nil
}
