package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/validation"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotApproved        = errors.New("artist account is awaiting approval")
	ErrNotAuthorized      = errors.New("not authorized")
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=identity
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) ([]*User, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CountByRole(ctx context.Context) (map[Role]int, error)
}

type Notifier interface {
	Notify(ctx context.Context, params notification.CreateParams) (*notification.Notification, error)
}

type Service struct {
	repo     Repository
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("service", "identity").Logger(),
	}
}

type RegisterParams struct {
	Name     string `validate:"required,max=120"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=72"`
	Role     Role   `validate:"required,oneof=artist client"`
	Phone    string `validate:"omitempty,e164"`
}

type ListFilter struct {
	Role     *Role
	Approved *bool
}

// Register creates a client (approved immediately) or an artist (awaiting approval).
// Admins are told about new artists.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	params.Name = strings.TrimSpace(params.Name)
	params.Email = normalizeEmail(params.Email)

	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         params.Role,
		Approved:     params.Role == RoleClient,
		Phone:        params.Phone,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Str("role", string(u.Role)).Msg("user registered")

	if u.Role == RoleArtist {
		s.notifyAdmins(ctx, u)
	}

	return u, nil
}

func (s *Service) notifyAdmins(ctx context.Context, artist *User) {
	admins, err := s.repo.ListUsers(ctx, ListFilter{Role: new(RoleAdmin)})
	if err != nil {
		s.logger.Warn().Err(err).Msg("listing admins for new artist notice")
		return
	}

	for _, admin := range admins {
		_, err := s.notifier.Notify(ctx, notification.CreateParams{
			ReceiverID: admin.ID,
			Type:       notification.TypeNewArtist,
			Message:    fmt.Sprintf("New artist registered: %s", artist.DisplayName()),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("admin_id", admin.ID.String()).Msg("new artist notice failed")
		}
	}
}

// Authenticate checks credentials. Unapproved artists cannot sign in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if u.Role == RoleArtist && !u.Approved {
		return nil, ErrNotApproved
	}

	return u, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) List(ctx context.Context, actor Actor, filter ListFilter) ([]*User, error) {
	if !actor.Is(RoleAdmin) {
		return nil, ErrNotAuthorized
	}

	return s.repo.ListUsers(ctx, filter)
}

func (s *Service) CountByRole(ctx context.Context, actor Actor) (map[Role]int, error) {
	if !actor.Is(RoleAdmin) {
		return nil, ErrNotAuthorized
	}

	return s.repo.CountByRole(ctx)
}

// Approve lets a pending artist sign in.
func (s *Service) Approve(ctx context.Context, actor Actor, artistID uuid.UUID) (*User, error) {
	u, err := s.pendingArtist(ctx, actor, artistID)
	if err != nil {
		return nil, err
	}

	if u.Approved {
		return u, nil
	}

	if err := s.repo.SetApproved(ctx, u.ID, true); err != nil {
		return nil, err
	}

	u.Approved = true

	s.logger.Info().Str("artist_id", u.ID.String()).Str("admin_id", actor.ID.String()).Msg("artist approved")

	return u, nil
}

// Reject removes an artist that was never approved.
func (s *Service) Reject(ctx context.Context, actor Actor, artistID uuid.UUID) error {
	u, err := s.pendingArtist(ctx, actor, artistID)
	if err != nil {
		return err
	}

	if u.Approved {
		return validation.New("artist", "is already approved")
	}

	if err := s.repo.DeleteUser(ctx, u.ID); err != nil {
		return err
	}

	s.logger.Info().Str("artist_id", u.ID.String()).Str("admin_id", actor.ID.String()).Msg("artist rejected")

	return nil
}

func (s *Service) pendingArtist(ctx context.Context, actor Actor, artistID uuid.UUID) (*User, error) {
	if !actor.Is(RoleAdmin) {
		return nil, ErrNotAuthorized
	}

	u, err := s.repo.GetUser(ctx, artistID)
	if err != nil {
		return nil, err
	}

	if u.Role != RoleArtist {
		return nil, ErrNotFound
	}

	return u, nil
}

// EnsureAdmin creates the bootstrap admin account unless it already exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*User, error) {
	email = normalizeEmail(email)

	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != RoleAdmin {
			return nil, fmt.Errorf("bootstrap admin %s exists with role %s", email, existing.Role)
		}

		return existing, nil
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if len(password) < 8 {
		return nil, validation.New("password", "must be at least 8 characters")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         RoleAdmin,
		Approved:     true,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", u.ID.String()).Msg("bootstrap admin created")

	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
