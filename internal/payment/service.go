package payment

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

var (
	ErrPaymentFailed  = errors.New("payment failed")
	ErrIntentNotFound = errors.New("payment intent not found")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=payment
type Commissions interface {
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*commission.Commission, error)
	ChooseBalanceMode(ctx context.Context, id uuid.UUID, actor identity.Actor, mode commission.PaymentMode) (*commission.Commission, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, kind transaction.Type, externalRef string) (*transaction.Transaction, error)
}

// Gateway is the external payment provider.
type Gateway interface {
	CreatePayment(ctx context.Context, req CreateRequest) (*Created, error)
	ExecutePayment(ctx context.Context, paymentID, payerID string) (*Execution, error)
}

// IntentStore keeps in-flight intents until the provider calls back.
type IntentStore interface {
	Save(ctx context.Context, intent *Intent) error
	Get(ctx context.Context, ref string) (*Intent, error)
	Delete(ctx context.Context, ref string) error
}

type Options struct {
	Currency  string
	ReturnURL string
	CancelURL string
}

type Service struct {
	commissions Commissions
	gateway     Gateway
	intents     IntentStore
	opts        Options
	logger      zerolog.Logger
}

func NewService(commissions Commissions, gateway Gateway, intents IntentStore, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		commissions: commissions,
		gateway:     gateway,
		intents:     intents,
		opts:        opts,
		logger:      logger.With().Str("service", "payment").Logger(),
	}
}

// Initiate starts an advance or balance payment for the commission's client.
// Online payments return the provider's approval URL; an offline balance only records the choice.
func (s *Service) Initiate(ctx context.Context, id uuid.UUID, actor identity.Actor, kind transaction.Type, mode commission.PaymentMode) (*Intent, error) {
	if !kind.Valid() {
		return nil, validation.New("kind", "must be one of [advance balance]")
	}

	if mode != commission.PaymentModeOnline && mode != commission.PaymentModeOffline {
		return nil, validation.New("mode", "must be one of [online offline]")
	}

	c, err := s.commissions.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if actor.ID != c.ClientID {
		return nil, commission.ErrNotAuthorized
	}

	intent := &Intent{
		CommissionID: c.ID,
		Kind:         kind,
		Mode:         mode,
		Currency:     s.opts.Currency,
		CreatedAt:    time.Now(),
	}

	switch kind {
	case transaction.TypeAdvance:
		if err := checkAdvance(c); err != nil {
			return nil, err
		}

		if mode == commission.PaymentModeOffline {
			return nil, validation.New("mode", "advance must be paid online")
		}

		intent.Amount = c.AdvanceAmount
	case transaction.TypeBalance:
		if err := checkBalance(c); err != nil {
			return nil, err
		}

		if _, err := s.commissions.ChooseBalanceMode(ctx, id, actor, mode); err != nil {
			return nil, err
		}

		intent.Amount = c.Remaining()

		if mode == commission.PaymentModeOffline {
			s.logger.Info().Str("commission", c.Code).Msg("balance will be collected offline")
			return intent, nil
		}
	}

	created, err := s.gateway.CreatePayment(ctx, CreateRequest{
		Amount:      intent.Amount,
		Currency:    s.opts.Currency,
		Description: fmt.Sprintf("%s payment for %s", kind, c.Title),
		Invoice:     c.Code + "-" + string(kind),
		ReturnURL:   s.returnURL(c.ID, kind),
		CancelURL:   s.opts.CancelURL,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("commission", c.Code).Str("kind", string(kind)).Msg("creating provider payment")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	intent.ExternalReference = created.ID
	intent.RedirectURL = created.ApprovalURL

	if err := s.intents.Save(ctx, intent); err != nil {
		return nil, fmt.Errorf("saving payment intent: %w", err)
	}

	s.logger.Info().
		Str("commission", c.Code).
		Str("kind", string(kind)).
		Str("reference", created.ID).
		Msg("payment initiated")

	return intent, nil
}

func checkAdvance(c *commission.Commission) error {
	if c.AdvancePaid {
		return commission.ErrAlreadyPaid
	}

	if !c.TotalPrice.IsPositive() {
		return fmt.Errorf("%w: total price", commission.ErrNotSet)
	}

	if !c.AdvanceAmount.IsPositive() {
		return fmt.Errorf("%w: advance amount", commission.ErrNotSet)
	}

	if c.Status != commission.StatusPending && c.Status != commission.StatusAccepted {
		return fmt.Errorf("%w: advance cannot be paid while %s", commission.ErrInvalidStage, c.Status)
	}

	return nil
}

func checkBalance(c *commission.Commission) error {
	if c.BalancePaid {
		return commission.ErrAlreadyPaid
	}

	if c.Status != commission.StatusCompleted {
		return fmt.Errorf("%w: balance cannot be paid while %s", commission.ErrInvalidStage, c.Status)
	}

	if !c.Remaining().IsPositive() {
		return fmt.Errorf("%w: no balance remaining", commission.ErrNotSet)
	}

	return nil
}

func (s *Service) returnURL(id uuid.UUID, kind transaction.Type) string {
	q := url.Values{}
	q.Set("commission", id.String())
	q.Set("kind", string(kind))

	return s.opts.ReturnURL + "?" + q.Encode()
}

type ConfirmParams struct {
	Kind              transaction.Type
	ExternalReference string
	PayerID           string
}

// Confirm captures an approved provider payment and settles it on the commission.
// A repeated confirmation returns the transaction recorded the first time.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, params ConfirmParams) (*transaction.Transaction, error) {
	if !params.Kind.Valid() {
		return nil, validation.New("kind", "must be one of [advance balance]")
	}

	if params.ExternalReference == "" {
		return nil, validation.New("external_reference", "is required")
	}

	c, err := s.commissions.Get(ctx, identity.System, id)
	if err != nil {
		return nil, err
	}

	if paid(c, params.Kind) {
		return s.commissions.ConfirmPayment(ctx, id, params.Kind, params.ExternalReference)
	}

	intent, err := s.intents.Get(ctx, params.ExternalReference)
	if err != nil {
		if errors.Is(err, ErrIntentNotFound) {
			if tx, ok := s.settledMeanwhile(ctx, id, params); ok {
				return tx, nil
			}

			return nil, fmt.Errorf("%w: unknown or expired payment %s", ErrPaymentFailed, params.ExternalReference)
		}

		return nil, fmt.Errorf("loading payment intent: %w", err)
	}

	if intent.CommissionID != id || intent.Kind != params.Kind {
		return nil, fmt.Errorf("%w: payment %s does not belong to this %s", ErrPaymentFailed, params.ExternalReference, params.Kind)
	}

	if !commission.Allowed(c, confirmTrigger(params.Kind)) {
		return nil, fmt.Errorf("%w: %s cannot be settled while %s", commission.ErrInvalidStage, params.Kind, c.Status)
	}

	exec, err := s.gateway.ExecutePayment(ctx, params.ExternalReference, params.PayerID)
	if err != nil {
		if tx, ok := s.settledMeanwhile(ctx, id, params); ok {
			return tx, nil
		}

		s.logger.Error().Err(err).Str("reference", params.ExternalReference).Msg("executing provider payment")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	if exec.State != StateApproved {
		if tx, ok := s.settledMeanwhile(ctx, id, params); ok {
			return tx, nil
		}

		return nil, fmt.Errorf("%w: provider reported %q", ErrPaymentFailed, exec.State)
	}

	if !exec.Amount.Equal(intent.Amount) {
		return nil, fmt.Errorf("%w: captured %s, expected %s",
			ErrPaymentFailed, exec.Amount.StringFixed(2), intent.Amount.StringFixed(2))
	}

	tx, err := s.commissions.ConfirmPayment(ctx, id, params.Kind, params.ExternalReference)
	if err != nil {
		s.logger.Error().Err(err).
			Str("commission", c.Code).
			Str("kind", string(params.Kind)).
			Str("reference", params.ExternalReference).
			Str("amount", exec.Amount.StringFixed(2)).
			Msg("payment captured but not settled on the commission")

		return nil, err
	}

	if err := s.intents.Delete(ctx, params.ExternalReference); err != nil {
		s.logger.Warn().Err(err).Str("reference", params.ExternalReference).Msg("deleting payment intent")
	}

	s.logger.Info().
		Str("commission", c.Code).
		Str("kind", string(params.Kind)).
		Str("reference", params.ExternalReference).
		Msg("payment confirmed")

	return tx, nil
}

// settledMeanwhile reports the ledger entry of a payment that a concurrent confirmation
// of the same reference settled while this one was failing.
func (s *Service) settledMeanwhile(ctx context.Context, id uuid.UUID, params ConfirmParams) (*transaction.Transaction, bool) {
	c, err := s.commissions.Get(ctx, identity.System, id)
	if err != nil || !paid(c, params.Kind) {
		return nil, false
	}

	tx, err := s.commissions.ConfirmPayment(ctx, id, params.Kind, params.ExternalReference)
	if err != nil {
		return nil, false
	}

	s.logger.Info().Str("reference", params.ExternalReference).Msg("payment settled by a concurrent confirmation")

	return tx, true
}

func confirmTrigger(kind transaction.Type) commission.Trigger {
	if kind == transaction.TypeAdvance {
		return commission.TriggerConfirmAdvance
	}

	return commission.TriggerConfirmBalance
}

func paid(c *commission.Commission, kind transaction.Type) bool {
	if kind == transaction.TypeAdvance {
		return c.AdvancePaid
	}

	return c.BalancePaid
}
