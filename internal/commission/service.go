package commission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

// ErrDuplicateCode is returned by CreateCommission when the code was issued before.
var ErrDuplicateCode = errors.New("commission code already issued")

const codeAttempts = 5

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=commission
type Repository interface {
	CreateCommission(ctx context.Context, c *Commission) error
	GetCommission(ctx context.Context, id uuid.UUID) (*Commission, error)
	ListCommissions(ctx context.Context, filter ListFilter) ([]*Commission, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
	GetPayment(ctx context.Context, commissionID uuid.UUID, kind transaction.Type) (*transaction.Transaction, error)

	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is one database transaction holding the commission row lock.
type UnitOfWork interface {
	LockCommission(ctx context.Context, id uuid.UUID) (*Commission, error)
	UpdateCommission(ctx context.Context, c *Commission) error
	RecordTransaction(ctx context.Context, tx *transaction.Transaction) error
	Commit() error
	Rollback() error
}

// Directory resolves users for party checks.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

type Notifier interface {
	Notify(ctx context.Context, params notification.CreateParams) (*notification.Notification, error)
}

type Service struct {
	repo    Repository
	users   Directory
	effects *dispatcher
	logger  zerolog.Logger
	now     func() time.Time
}

func NewService(repo Repository, users Directory, notifier Notifier, logger zerolog.Logger) *Service {
	logger = logger.With().Str("service", "commission").Logger()

	return &Service{
		repo:    repo,
		users:   users,
		effects: &dispatcher{notifier: notifier, logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

type CreateParams struct {
	ArtistID        uuid.UUID `validate:"required"`
	Title           string    `validate:"required,max=200"`
	Description     string    `validate:"max=5000"`
	RequiredDate    time.Time `validate:"required"`
	ReferenceImage  string    `validate:"max=500"`
	DeliveryAddress string    `validate:"max=500"`
	ContactPhone    string    `validate:"omitempty,e164"`
}

type ListFilter struct {
	ClientID *uuid.UUID
	ArtistID *uuid.UUID
	Status   *Status
}

// Create opens a commission request from the acting client to an approved artist.
func (s *Service) Create(ctx context.Context, actor identity.Actor, params CreateParams) (*Commission, error) {
	if !actor.Is(identity.RoleClient) {
		return nil, ErrNotAuthorized
	}

	params.Title = strings.TrimSpace(params.Title)
	params.Description = strings.TrimSpace(params.Description)

	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	now := s.now()
	if !dateOnly(params.RequiredDate).After(dateOnly(now)) {
		return nil, validation.New("required_date", "must be in the future")
	}

	artist, err := s.users.Get(ctx, params.ArtistID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, validation.New("artist_id", "unknown artist")
		}

		return nil, fmt.Errorf("looking up artist: %w", err)
	}

	if artist.Role != identity.RoleArtist || !artist.Approved {
		return nil, validation.New("artist_id", "is not an available artist")
	}

	c := &Commission{
		ClientID:        actor.ID,
		ArtistID:        artist.ID,
		Title:           params.Title,
		Description:     params.Description,
		ReferenceImage:  params.ReferenceImage,
		RequiredDate:    dateOnly(params.RequiredDate),
		DeliveryAddress: params.DeliveryAddress,
		ContactPhone:    params.ContactPhone,
		Status:          StatusPending,
	}

	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info().Str("commission", c.Code).Str("client_id", c.ClientID.String()).Msg("commission requested")

	s.effects.notify(ctx, c, []Effect{Notify{
		Receiver: c.ArtistID,
		Type:     notification.TypeCommissionRequest,
		Message:  fmt.Sprintf("%s requested a commission: %s", actor.Name, c.Title),
	}})

	return c, nil
}

func (s *Service) insert(ctx context.Context, c *Commission) error {
	for range codeAttempts {
		code, err := NewCode()
		if err != nil {
			return err
		}

		c.Code = code

		err = s.repo.CreateCommission(ctx, c)
		if errors.Is(err, ErrDuplicateCode) {
			s.logger.Debug().Str("code", code).Msg("commission code collision, retrying")
			continue
		}

		return err
	}

	return fmt.Errorf("allocating commission code: %w", ErrDuplicateCode)
}

// Get returns a commission to one of its parties or an admin.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*Commission, error) {
	c, err := s.repo.GetCommission(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, ok := c.PartyOf(actor.ID); !ok && !actor.Is(identity.RoleAdmin) && !actor.Is(identity.RoleSystem) {
		return nil, ErrNotAuthorized
	}

	return c, nil
}

// List returns the actor's commissions, newest first.
func (s *Service) List(ctx context.Context, actor identity.Actor, status *Status) ([]*Commission, error) {
	filter := ListFilter{Status: status}

	switch actor.Role {
	case identity.RoleClient:
		filter.ClientID = new(actor.ID)
	case identity.RoleArtist:
		filter.ArtistID = new(actor.ID)
	case identity.RoleAdmin:
	default:
		return nil, ErrNotAuthorized
	}

	if status != nil && !status.Valid() {
		return nil, validation.New("status", fmt.Sprintf("unknown status %q", *status))
	}

	return s.repo.ListCommissions(ctx, filter)
}

func (s *Service) CountByStatus(ctx context.Context, actor identity.Actor) (map[Status]int, error) {
	if !actor.Is(identity.RoleAdmin) {
		return nil, ErrNotAuthorized
	}

	return s.repo.CountByStatus(ctx)
}

func (s *Service) SetTotalPrice(ctx context.Context, id uuid.UUID, actor identity.Actor, amount decimal.Decimal) (*Commission, error) {
	c, _, err := s.run(ctx, id, func(c Commission) (Result, error) {
		next, err := SetTotalPrice(c, actor, amount, s.now())
		return Result{Commission: next}, err
	})

	return c, err
}

func (s *Service) SetAdvanceAmount(ctx context.Context, id uuid.UUID, actor identity.Actor, amount decimal.Decimal) (*Commission, error) {
	c, _, err := s.run(ctx, id, func(c Commission) (Result, error) {
		next, err := SetAdvanceAmount(c, actor, amount, s.now())
		return Result{Commission: next}, err
	})

	return c, err
}

// Transition moves a commission to target on behalf of actor.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, actor identity.Actor, target Status, reason string) (*Commission, error) {
	trigger, err := TriggerFor(target)
	if err != nil {
		return nil, err
	}

	return s.Fire(ctx, id, trigger, Input{Actor: actor, Reason: reason})
}

// ChooseBalanceMode records how the client will settle the balance.
func (s *Service) ChooseBalanceMode(ctx context.Context, id uuid.UUID, actor identity.Actor, mode PaymentMode) (*Commission, error) {
	return s.Fire(ctx, id, TriggerChooseBalanceMode, Input{Actor: actor, Mode: mode})
}

// Fire applies trigger under the commission's row lock.
func (s *Service) Fire(ctx context.Context, id uuid.UUID, trigger Trigger, in Input) (*Commission, error) {
	c, _, err := s.run(ctx, id, func(c Commission) (Result, error) {
		in.Now = s.now()
		return Apply(c, trigger, in)
	})

	return c, err
}

// ConfirmPayment settles the advance or balance after the provider confirmed it.
// Confirming an already settled payment returns the existing ledger entry.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID, kind transaction.Type, externalRef string) (*transaction.Transaction, error) {
	var trigger Trigger

	switch kind {
	case transaction.TypeAdvance:
		trigger = TriggerConfirmAdvance
	case transaction.TypeBalance:
		trigger = TriggerConfirmBalance
	default:
		return nil, validation.New("kind", fmt.Sprintf("unknown payment kind %q", kind))
	}

	_, txs, err := s.run(ctx, id, func(c Commission) (Result, error) {
		return Apply(c, trigger, Input{Actor: identity.System, ExternalReference: externalRef, Now: s.now()})
	})
	if errors.Is(err, ErrAlreadyPaid) {
		existing, getErr := s.repo.GetPayment(ctx, id, kind)
		if getErr != nil {
			return nil, fmt.Errorf("loading settled %s payment: %w", kind, getErr)
		}

		s.logger.Info().Str("commission_id", id.String()).Str("kind", string(kind)).Msg("payment already confirmed")

		return existing, nil
	}

	if err != nil {
		return nil, err
	}

	for _, tx := range txs {
		if tx.Type == kind {
			return tx, nil
		}
	}

	return nil, fmt.Errorf("confirming %s payment: no ledger entry recorded", kind)
}

// run locks the commission, applies step, persists the result with its ledger entries,
// commits, and only then sends notifications.
func (s *Service) run(ctx context.Context, id uuid.UUID, step func(c Commission) (Result, error)) (*Commission, []*transaction.Transaction, error) {
	uow, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin commission update: %w", err)
	}
	defer uow.Rollback()

	current, err := uow.LockCommission(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	res, err := step(*current)
	if err != nil {
		return nil, nil, err
	}

	next := &res.Commission

	if err := uow.UpdateCommission(ctx, next); err != nil {
		return nil, nil, fmt.Errorf("update commission: %w", err)
	}

	txs, err := s.effects.record(ctx, uow, next, res.Effects)
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit commission update: %w", err)
	}

	if current.Status != next.Status {
		s.logger.Info().
			Str("commission", next.Code).
			Str("from", string(current.Status)).
			Str("to", string(next.Status)).
			Msg("commission transitioned")
	}

	s.effects.notify(ctx, next, res.Effects)

	return next, txs, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
