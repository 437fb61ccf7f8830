package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("notification not found")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=notification
type Repository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	ListNotifications(ctx context.Context, receiverID uuid.UUID) ([]*Notification, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int, error)
	MarkAllRead(ctx context.Context, receiverID uuid.UUID) (int, error)
	DeleteNotification(ctx context.Context, id, receiverID uuid.UUID) error
}

// Publisher pushes a freshly created notification to the receiver's live connections.
type Publisher interface {
	Publish(receiverID uuid.UUID, payload any) error
}

type Service struct {
	repo      Repository
	publisher Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, publisher Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With().Str("service", "notification").Logger(),
	}
}

type CreateParams struct {
	ReceiverID   uuid.UUID
	CommissionID *uuid.UUID
	Type         Type
	Message      string
}

// Notify stores a notification and pushes it live. Push failures are logged only.
func (s *Service) Notify(ctx context.Context, params CreateParams) (*Notification, error) {
	if params.ReceiverID == uuid.Nil {
		return nil, errors.New("notification receiver is required")
	}

	if !params.Type.Valid() {
		return nil, fmt.Errorf("unknown notification type %q", params.Type)
	}

	if strings.TrimSpace(params.Message) == "" {
		return nil, errors.New("notification message is required")
	}

	n := &Notification{
		ReceiverID:   params.ReceiverID,
		CommissionID: params.CommissionID,
		Type:         params.Type,
		Message:      params.Message,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(n.ReceiverID, n); err != nil {
			s.logger.Debug().Err(err).Str("receiver_id", n.ReceiverID.String()).Msg("live push skipped")
		}
	}

	return n, nil
}

func (s *Service) List(ctx context.Context, receiverID uuid.UUID) ([]*Notification, error) {
	return s.repo.ListNotifications(ctx, receiverID)
}

func (s *Service) UnreadCount(ctx context.Context, receiverID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, receiverID)
}

// MarkAllRead flips every unread notification of the receiver and returns how many changed.
func (s *Service) MarkAllRead(ctx context.Context, receiverID uuid.UUID) (int, error) {
	n, err := s.repo.MarkAllRead(ctx, receiverID)
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Str("receiver_id", receiverID.String()).Int("count", n).Msg("notifications marked read")

	return n, nil
}

// Delete removes a notification owned by receiverID. Other receivers' notifications report ErrNotFound.
func (s *Service) Delete(ctx context.Context, id, receiverID uuid.UUID) error {
	return s.repo.DeleteNotification(ctx, id, receiverID)
}
