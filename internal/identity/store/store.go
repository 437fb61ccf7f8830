package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/RaniyaAK/arts/internal/database"
	"github.com/RaniyaAK/arts/internal/identity"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectUserColumns = `id, name, email, password_hash, role, approved, phone, created_at, updated_at`

func scanUser(s scanner) (*identity.User, error) {
	var (
		u       identity.User
		roleStr string
	)

	if err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &roleStr, &u.Approved, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}

	u.Role = identity.Role(roleStr)

	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *identity.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, approved, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Approved, u.Phone,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "users_email_key") {
			return identity.ErrEmailTaken
		}

		return fmt.Errorf("creating user: %w", err)
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+selectUserColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identity.ErrNotFound
		}

		return nil, fmt.Errorf("getting user by email: %w", err)
	}

	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter identity.ListFilter) ([]*identity.User, error) {
	query := `SELECT ` + selectUserColumns + ` FROM users WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.Role != nil {
		query += fmt.Sprintf(" AND role = $%d", argIdx)

		args = append(args, *filter.Role)
		argIdx++
	}

	if filter.Approved != nil {
		query += fmt.Sprintf(" AND approved = $%d", argIdx)

		args = append(args, *filter.Approved)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*identity.User

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	return users, nil
}

func (s *Store) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET approved = $1, updated_at = NOW() WHERE id = $2`, approved, id)
	if err != nil {
		return fmt.Errorf("updating approval: %w", err)
	}

	return requireOne(res)
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return requireOne(res)
}

func (s *Store) CountByRole(ctx context.Context) (map[identity.Role]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	defer rows.Close()

	counts := make(map[identity.Role]int)

	for rows.Next() {
		var (
			role  string
			count int
		)

		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scanning user count: %w", err)
		}

		counts[identity.Role(role)] = count
	}

	return counts, rows.Err()
}

func requireOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}

	if n == 0 {
		return identity.ErrNotFound
	}

	return nil
}
