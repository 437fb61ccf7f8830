package transaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/RaniyaAK/arts/internal/identity"
)

var ErrNotFound = errors.New("transaction not found")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=transaction
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	SumRevenue(ctx context.Context, filter ListFilter) (Revenue, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	PayerID      *uuid.UUID
	ArtistID     *uuid.UUID
	CommissionID *uuid.UUID
	Type         *Type
	StartDate    *time.Time
	EndDate      *time.Time
}

// scope narrows filter to what actor may see: clients what they paid,
// artists what was paid to them, admins everything.
func scope(actor identity.Actor, filter ListFilter) (ListFilter, error) {
	switch actor.Role {
	case identity.RoleClient:
		filter.PayerID = new(actor.ID)
		filter.ArtistID = nil
	case identity.RoleArtist:
		filter.ArtistID = new(actor.ID)
		filter.PayerID = nil
	case identity.RoleAdmin:
	default:
		return ListFilter{}, identity.ErrNotAuthorized
	}

	return filter, nil
}

// List returns the actor's transactions, newest first.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter ListFilter) ([]*Transaction, error) {
	filter, err := scope(actor, filter)
	if err != nil {
		return nil, err
	}

	return s.repo.ListTransactions(ctx, filter)
}

// Get hides transactions the actor is not a party to behind ErrNotFound.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case identity.RoleAdmin:
		return tx, nil
	case identity.RoleClient:
		if tx.PayerID == actor.ID {
			return tx, nil
		}
	case identity.RoleArtist:
		if tx.ArtistID == actor.ID {
			return tx, nil
		}
	}

	return nil, ErrNotFound
}

// Revenue is an artist's income, or platform-wide income for admins.
func (s *Service) Revenue(ctx context.Context, actor identity.Actor) (Revenue, error) {
	if actor.Role == identity.RoleClient {
		return Revenue{}, identity.ErrNotAuthorized
	}

	filter, err := scope(actor, ListFilter{})
	if err != nil {
		return Revenue{}, err
	}

	return s.repo.SumRevenue(ctx, filter)
}
