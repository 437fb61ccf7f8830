package commission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

// Trigger names a lifecycle transition.
type Trigger string

const (
	TriggerAccept            Trigger = "accept"
	TriggerReject            Trigger = "reject"
	TriggerConfirmAdvance    Trigger = "confirm_advance"
	TriggerStartProgress     Trigger = "start_progress"
	TriggerComplete          Trigger = "complete"
	TriggerChooseBalanceMode Trigger = "choose_balance_payment_mode"
	TriggerConfirmBalance    Trigger = "confirm_balance"
	TriggerShip              Trigger = "ship"
	TriggerDeliver           Trigger = "deliver"
	TriggerCancel            Trigger = "cancel"
)

// Effect is a side effect requested by a transition. The engine never performs it.
type Effect interface {
	isEffect()
}

// Notify asks for a notification to Receiver.
type Notify struct {
	Receiver uuid.UUID
	Type     notification.Type
	Message  string
}

// RecordPayment asks for a ledger entry written atomically with the new state.
type RecordPayment struct {
	Type              transaction.Type
	Mode              transaction.Mode
	Amount            decimal.Decimal
	PayerID           uuid.UUID
	Description       string
	ExternalReference string
}

func (Notify) isEffect()        {}
func (RecordPayment) isEffect() {}

// Input is everything a transition may read besides the commission itself.
type Input struct {
	Actor             identity.Actor
	Reason            string
	Mode              PaymentMode
	ExternalReference string
	Now               time.Time
}

// Result is the commission after a transition plus the effects to dispatch.
type Result struct {
	Commission Commission
	Effects    []Effect
}

type actorKind int

const (
	byArtist actorKind = iota
	byClient
	byParty
	bySystem
)

type rule struct {
	who  actorKind
	from []Status
	to   Status // empty keeps the status

	// paid reports that the payment this rule settles already happened.
	paid    func(c *Commission) bool
	guard   func(c *Commission, in Input) error
	mutate  func(c *Commission, actor Party, in Input)
	effects func(prev, next *Commission, actor Party, in Input) []Effect
}

var cancellable = []Status{StatusPending, StatusAccepted, StatusAdvancePaid, StatusInProgress, StatusCompleted}

var transitions = map[Trigger]rule{
	TriggerAccept: {
		who:  byArtist,
		from: []Status{StatusPending},
		to:   StatusAccepted,
		effects: func(_, c *Commission, _ Party, in Input) []Effect {
			return notifyClient(c, notification.TypeAccepted,
				fmt.Sprintf("Your commission '%s' (%s) has been accepted by %s", c.Title, c.Code, in.Actor.Name))
		},
	},
	TriggerReject: {
		who:  byArtist,
		from: []Status{StatusPending, StatusAccepted},
		to:   StatusRejected,
		mutate: func(c *Commission, _ Party, in Input) {
			c.RejectionReason = strings.TrimSpace(in.Reason)
		},
		effects: func(_, c *Commission, _ Party, in Input) []Effect {
			msg := fmt.Sprintf("Your commission '%s' (%s) has been rejected by %s", c.Title, c.Code, in.Actor.Name)
			if c.RejectionReason != "" {
				msg += ". Reason: " + c.RejectionReason
			}

			return notifyClient(c, notification.TypeRejected, msg)
		},
	},
	TriggerConfirmAdvance: {
		who:  bySystem,
		from: []Status{StatusPending, StatusAccepted},
		to:   StatusAdvancePaid,
		paid: func(c *Commission) bool { return c.AdvancePaid },
		guard: func(c *Commission, _ Input) error {
			if !c.TotalPrice.IsPositive() || !c.AdvanceAmount.IsPositive() {
				return ErrNotSet
			}

			return nil
		},
		mutate: func(c *Commission, _ Party, _ Input) {
			c.AdvancePaid = true
		},
		effects: func(_, c *Commission, _ Party, in Input) []Effect {
			return []Effect{
				RecordPayment{
					Type:              transaction.TypeAdvance,
					Mode:              transaction.ModeOnline,
					Amount:            c.AdvanceAmount,
					PayerID:           c.ClientID,
					Description:       "Advance payment for " + c.Title,
					ExternalReference: in.ExternalReference,
				},
				Notify{
					Receiver: c.ArtistID,
					Type:     notification.TypeAdvancePaid,
					Message:  fmt.Sprintf("Advance payment received for commission: %s (%s)", c.Title, c.Code),
				},
			}
		},
	},
	TriggerStartProgress: {
		who:  byArtist,
		from: []Status{StatusAdvancePaid},
		to:   StatusInProgress,
	},
	TriggerComplete: {
		who:  byArtist,
		from: []Status{StatusInProgress},
		to:   StatusCompleted,
	},
	TriggerChooseBalanceMode: {
		who:  byClient,
		from: []Status{StatusCompleted},
		paid: func(c *Commission) bool { return c.BalancePaid },
		guard: func(c *Commission, in Input) error {
			if in.Mode != PaymentModeOnline && in.Mode != PaymentModeOffline {
				return validation.New("payment_mode", "must be one of [online offline]")
			}

			if !c.Remaining().IsPositive() {
				return ErrNotSet
			}

			return nil
		},
		mutate: func(c *Commission, _ Party, in Input) {
			c.PaymentMode = in.Mode
		},
	},
	TriggerConfirmBalance: {
		who:  bySystem,
		from: []Status{StatusCompleted, StatusShipping},
		paid: func(c *Commission) bool { return c.BalancePaid },
		guard: func(c *Commission, _ Input) error {
			if !c.Remaining().IsPositive() {
				return ErrNotSet
			}

			return nil
		},
		mutate: func(c *Commission, _ Party, in Input) {
			c.BalancePaid = true
			c.BalancePaidAt = new(in.Now)
			c.PaymentMode = PaymentModeOnline
		},
		effects: func(_, c *Commission, _ Party, in Input) []Effect {
			return []Effect{
				RecordPayment{
					Type:              transaction.TypeBalance,
					Mode:              transaction.ModeOnline,
					Amount:            c.Remaining(),
					PayerID:           c.ClientID,
					Description:       "Balance payment for " + c.Title,
					ExternalReference: in.ExternalReference,
				},
				Notify{
					Receiver: c.ArtistID,
					Type:     notification.TypeBalancePaid,
					Message:  fmt.Sprintf("Balance payment received for '%s' (%s)", c.Title, c.Code),
				},
			}
		},
	},
	TriggerShip: {
		who:  byArtist,
		from: []Status{StatusCompleted},
		to:   StatusShipping,
		mutate: func(c *Commission, _ Party, in Input) {
			if c.PaymentMode == PaymentModeOffline && !c.BalancePaid && c.Remaining().IsPositive() {
				c.BalancePaid = true
				c.BalancePaidAt = new(in.Now)
			}
		},
		effects: func(prev, c *Commission, _ Party, _ Input) []Effect {
			var effects []Effect

			if c.BalancePaid && !prev.BalancePaid {
				effects = append(effects,
					RecordPayment{
						Type:        transaction.TypeBalance,
						Mode:        transaction.ModeOffline,
						Amount:      c.Remaining(),
						PayerID:     c.ClientID,
						Description: "Offline balance payment collected for " + c.Title,
					},
					Notify{
						Receiver: c.ClientID,
						Type:     notification.TypeBalancePaid,
						Message:  fmt.Sprintf("Offline payment collected for commission '%s' (%s)", c.Title, c.Code),
					},
				)
			}

			return append(effects, notifyClient(c, notification.TypeShipped,
				fmt.Sprintf("Your commission '%s' (%s) has been shipped", c.Title, c.Code))...)
		},
	},
	TriggerDeliver: {
		who:  byArtist,
		from: []Status{StatusShipping},
		to:   StatusDelivered,
		guard: func(c *Commission, _ Input) error {
			if c.Remaining().IsPositive() && !c.BalancePaid {
				return &StateConflictError{
					Current:  c.Status,
					Required: []Status{StatusShipping},
					Detail:   "remaining balance of " + c.Remaining().StringFixed(2) + " is unpaid",
				}
			}

			return nil
		},
		effects: func(_, c *Commission, _ Party, _ Input) []Effect {
			return notifyClient(c, notification.TypeDelivered,
				fmt.Sprintf("Your commission '%s' (%s) has been delivered", c.Title, c.Code))
		},
	},
	TriggerCancel: {
		who:  byParty,
		from: cancellable,
		to:   StatusCancelled,
		guard: func(c *Commission, _ Input) error {
			if c.BalancePaid {
				return &StateConflictError{Current: c.Status, Required: cancellable, Detail: "balance already paid"}
			}

			return nil
		},
		mutate: func(c *Commission, actor Party, in Input) {
			c.CancelledBy = actor
			c.CancellationReason = strings.TrimSpace(in.Reason)
		},
		effects: func(_, c *Commission, actor Party, _ Input) []Effect {
			msg := fmt.Sprintf("Commission '%s' (%s) has been cancelled.", c.Title, c.Code)
			if c.AdvancePaid {
				msg += fmt.Sprintf(" The advance of %s was already paid and must be settled between the parties.",
					c.AdvanceAmount.StringFixed(2))
			}

			return []Effect{Notify{Receiver: c.Counterparty(actor), Type: notification.TypeCancelled, Message: msg}}
		},
	},
}

func notifyClient(c *Commission, t notification.Type, msg string) []Effect {
	return []Effect{Notify{Receiver: c.ClientID, Type: t, Message: msg}}
}

// TriggerFor maps a requested target status to the transition that reaches it.
func TriggerFor(target Status) (Trigger, error) {
	switch target {
	case StatusAccepted:
		return TriggerAccept, nil
	case StatusRejected:
		return TriggerReject, nil
	case StatusAdvancePaid:
		return TriggerConfirmAdvance, nil
	case StatusInProgress:
		return TriggerStartProgress, nil
	case StatusCompleted:
		return TriggerComplete, nil
	case StatusShipping:
		return TriggerShip, nil
	case StatusDelivered:
		return TriggerDeliver, nil
	case StatusCancelled:
		return TriggerCancel, nil
	}

	return "", validation.New("status", fmt.Sprintf("%q is not a reachable status", target))
}

// Apply evaluates trigger against c. It has no side effects: the returned Result holds
// the next state and the effects the caller must dispatch. c is never modified.
func Apply(c Commission, trigger Trigger, in Input) (Result, error) {
	r, ok := transitions[trigger]
	if !ok {
		return Result{}, validation.New("trigger", fmt.Sprintf("unknown trigger %q", trigger))
	}

	party, err := authorize(&c, r.who, in.Actor)
	if err != nil {
		return Result{}, err
	}

	if r.paid != nil && r.paid(&c) {
		return Result{}, ErrAlreadyPaid
	}

	if !allowed(c.Status, r.from) {
		return Result{}, conflict(c.Status, r.from...)
	}

	if r.guard != nil {
		if err := r.guard(&c, in); err != nil {
			return Result{}, err
		}
	}

	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	next := c

	if r.to != "" {
		next.Status = r.to
		*next.stampFor(r.to) = new(in.Now)
	}

	if r.mutate != nil {
		r.mutate(&next, party, in)
	}

	next.UpdatedAt = in.Now

	if err := next.Check(); err != nil {
		return Result{}, err
	}

	var effects []Effect
	if r.effects != nil {
		effects = r.effects(&c, &next, party, in)
	}

	return Result{Commission: next, Effects: effects}, nil
}

// Allowed reports whether trigger's status precondition holds for c, ignoring who asks.
func Allowed(c *Commission, trigger Trigger) bool {
	r, ok := transitions[trigger]
	return ok && allowed(c.Status, r.from)
}

func allowed(s Status, from []Status) bool {
	for _, f := range from {
		if f == s {
			return true
		}
	}

	return false
}

func authorize(c *Commission, who actorKind, actor identity.Actor) (Party, error) {
	if who == bySystem {
		if actor.Role != identity.RoleSystem {
			return "", ErrNotAuthorized
		}

		return "", nil
	}

	party, ok := c.PartyOf(actor.ID)
	if !ok || actor.ID == uuid.Nil {
		return "", ErrNotAuthorized
	}

	switch {
	case who == byArtist && party != PartyArtist,
		who == byClient && party != PartyClient:
		return "", ErrNotAuthorized
	}

	return party, nil
}
