package commission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/notification"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

type mocks struct {
	repo     *commission.MockRepository
	uow      *commission.MockUnitOfWork
	users    *commission.MockDirectory
	notifier *commission.MockNotifier
}

func newService(t *testing.T) (*commission.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		repo:     commission.NewMockRepository(ctrl),
		uow:      commission.NewMockUnitOfWork(ctrl),
		users:    commission.NewMockDirectory(ctrl),
		notifier: commission.NewMockNotifier(ctrl),
	}

	return commission.NewService(m.repo, m.users, m.notifier, zerolog.Nop()), m
}

// locked expects a unit of work that hands out c under lock.
func (m mocks) locked(c commission.Commission) {
	m.repo.EXPECT().Begin(gomock.Any()).Return(m.uow, nil)
	m.uow.EXPECT().LockCommission(gomock.Any(), c.ID).Return(&c, nil)
	m.uow.EXPECT().Rollback().Return(nil)
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		actor     identity.Actor
		params    commission.CreateParams
		setupMock func(m mocks)
		wantErr   error
	}

	future := time.Now().AddDate(0, 0, 14)
	approved := &identity.User{ID: artistID, Role: identity.RoleArtist, Approved: true, Name: "Ana"}

	tests := []testCase{
		{
			name:   "Success",
			actor:  client,
			params: commission.CreateParams{ArtistID: artistID, Title: " Portrait ", RequiredDate: future},
			setupMock: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), artistID).Return(approved, nil)
				m.repo.EXPECT().
					CreateCommission(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *commission.Commission) error {
						assert.True(t, commission.ValidCode(c.Code))
						assert.Equal(t, "Portrait", c.Title)
						assert.Equal(t, commission.StatusPending, c.Status)
						assert.Equal(t, clientID, c.ClientID)
						c.ID = uuid.New()
						return nil
					})
				m.notifier.EXPECT().
					Notify(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p notification.CreateParams) (*notification.Notification, error) {
						assert.Equal(t, artistID, p.ReceiverID)
						assert.Equal(t, notification.TypeCommissionRequest, p.Type)
						assert.Equal(t, "Carla requested a commission: Portrait", p.Message)
						return &notification.Notification{}, nil
					})
			},
		},
		{
			name:   "RetriesDuplicateCode",
			actor:  client,
			params: commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: future},
			setupMock: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), artistID).Return(approved, nil)
				gomock.InOrder(
					m.repo.EXPECT().CreateCommission(gomock.Any(), gomock.Any()).Return(commission.ErrDuplicateCode),
					m.repo.EXPECT().CreateCommission(gomock.Any(), gomock.Any()).Return(nil),
				)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(&notification.Notification{}, nil)
			},
		},
		{
			name:   "NotificationFailureIgnored",
			actor:  client,
			params: commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: future},
			setupMock: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), artistID).Return(approved, nil)
				m.repo.EXPECT().CreateCommission(gomock.Any(), gomock.Any()).Return(nil)
				m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
			},
		},
		{
			name:    "RequiredDateYesterday",
			actor:   client,
			params:  commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: time.Now().AddDate(0, 0, -1)},
			wantErr: validation.ErrInvalid,
		},
		{
			name:    "RequiredDateToday",
			actor:   client,
			params:  commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: time.Now()},
			wantErr: validation.ErrInvalid,
		},
		{
			name:    "MissingTitle",
			actor:   client,
			params:  commission.CreateParams{ArtistID: artistID, Title: "   ", RequiredDate: future},
			wantErr: validation.ErrInvalid,
		},
		{
			name:   "UnapprovedArtist",
			actor:  client,
			params: commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: future},
			setupMock: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), artistID).Return(&identity.User{ID: artistID, Role: identity.RoleArtist}, nil)
			},
			wantErr: validation.ErrInvalid,
		},
		{
			name:   "UnknownArtist",
			actor:  client,
			params: commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: future},
			setupMock: func(m mocks) {
				m.users.EXPECT().Get(gomock.Any(), artistID).Return(nil, identity.ErrNotFound)
			},
			wantErr: validation.ErrInvalid,
		},
		{
			name:    "ArtistCannotRequest",
			actor:   artist,
			params:  commission.CreateParams{ArtistID: artistID, Title: "Portrait", RequiredDate: future},
			wantErr: commission.ErrNotAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			got, err := svc.Create(context.Background(), tt.actor, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, commission.StatusPending, got.Status)
		})
	}
}

func TestService_Transition(t *testing.T) {
	t.Run("AcceptNotifiesAfterCommit", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusPending)

		m.locked(c)
		gomock.InOrder(
			m.uow.EXPECT().
				UpdateCommission(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, next *commission.Commission) error {
					assert.Equal(t, commission.StatusAccepted, next.Status)
					assert.NotNil(t, next.AcceptedAt)
					return nil
				}),
			m.uow.EXPECT().Commit().Return(nil),
			m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(&notification.Notification{}, nil),
		)

		got, err := svc.Transition(context.Background(), c.ID, artist, commission.StatusAccepted, "")

		require.NoError(t, err)
		assert.Equal(t, commission.StatusAccepted, got.Status)
	})

	// Concurrent accepts serialize on the FOR UPDATE lock taken by LockCommission,
	// so the later one reads the accepted row.
	t.Run("SecondAcceptAfterRowLockConflicts", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusAccepted)

		m.locked(c)

		_, err := svc.Transition(context.Background(), c.ID, artist, commission.StatusAccepted, "")

		assert.ErrorIs(t, err, commission.ErrStateConflict)
	})

	t.Run("UnreachableTarget", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Transition(context.Background(), uuid.New(), artist, commission.StatusPending, "")

		assert.ErrorIs(t, err, validation.ErrInvalid)
	})

	t.Run("CommitFailureSendsNothing", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusPending)

		m.locked(c)
		m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
		m.uow.EXPECT().Commit().Return(errors.New("connection reset"))

		_, err := svc.Transition(context.Background(), c.ID, artist, commission.StatusAccepted, "")

		assert.Error(t, err)
	})

	t.Run("NotificationFailureKeepsTransition", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusPending)

		m.locked(c)
		m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
		m.uow.EXPECT().Commit().Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		got, err := svc.Transition(context.Background(), c.ID, client, commission.StatusCancelled, "no longer needed")

		require.NoError(t, err)
		assert.Equal(t, commission.StatusCancelled, got.Status)
		assert.Equal(t, commission.PartyClient, got.CancelledBy)
	})

	t.Run("ShipOfflineRecordsBalanceInSameUnit", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusCompleted, advancePaid, func(c *commission.Commission) {
			c.PaymentMode = commission.PaymentModeOffline
		})

		m.locked(c)
		gomock.InOrder(
			m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil),
			m.uow.EXPECT().
				RecordTransaction(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
					assert.Equal(t, transaction.TypeBalance, tx.Type)
					assert.Equal(t, transaction.ModeOffline, tx.Mode)
					assert.Nil(t, tx.ExternalReference)
					assert.True(t, decimal.NewFromInt(700).Equal(tx.Amount))
					return nil
				}),
			m.uow.EXPECT().Commit().Return(nil),
		)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Times(2).Return(&notification.Notification{}, nil)

		got, err := svc.Transition(context.Background(), c.ID, artist, commission.StatusShipping, "")

		require.NoError(t, err)
		assert.True(t, got.BalancePaid)
	})

	t.Run("LedgerFailureAbortsShip", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusCompleted, advancePaid, func(c *commission.Commission) {
			c.PaymentMode = commission.PaymentModeOffline
		})

		m.locked(c)
		m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
		m.uow.EXPECT().RecordTransaction(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := svc.Transition(context.Background(), c.ID, artist, commission.StatusShipping, "")

		assert.Error(t, err)
	})
}

func TestService_SetTotalPrice(t *testing.T) {
	svc, m := newService(t)
	c := fixture(commission.StatusPending, func(c *commission.Commission) {
		c.TotalPrice = decimal.Zero
		c.AdvanceAmount = decimal.Zero
	})

	m.locked(c)
	m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
	m.uow.EXPECT().Commit().Return(nil)

	got, err := svc.SetTotalPrice(context.Background(), c.ID, artist, decimal.NewFromInt(1000))

	require.NoError(t, err)
	assert.Equal(t, "300.00", got.AdvanceAmount.StringFixed(2))
}

func TestService_ConfirmPayment(t *testing.T) {
	t.Run("RecordsAdvance", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusAccepted)

		m.locked(c)
		m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
		m.uow.EXPECT().
			RecordTransaction(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
				require.NotNil(t, tx.ExternalReference)
				assert.Equal(t, "PAY-1", *tx.ExternalReference)
				tx.ID = uuid.New()
				return nil
			})
		m.uow.EXPECT().Commit().Return(nil)
		m.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(&notification.Notification{}, nil)

		got, err := svc.ConfirmPayment(context.Background(), c.ID, transaction.TypeAdvance, "PAY-1")

		require.NoError(t, err)
		assert.Equal(t, transaction.TypeAdvance, got.Type)
		assert.Equal(t, clientID, got.PayerID)
	})

	t.Run("SecondConfirmationReturnsExisting", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusAdvancePaid, advancePaid)
		existing := &transaction.Transaction{ID: uuid.New(), Type: transaction.TypeAdvance}

		m.locked(c)
		m.repo.EXPECT().GetPayment(gomock.Any(), c.ID, transaction.TypeAdvance).Return(existing, nil)

		got, err := svc.ConfirmPayment(context.Background(), c.ID, transaction.TypeAdvance, "PAY-1")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
	})

	t.Run("ConcurrentDuplicateCaughtByLedger", func(t *testing.T) {
		svc, m := newService(t)
		c := fixture(commission.StatusCompleted, advancePaid)
		existing := &transaction.Transaction{ID: uuid.New(), Type: transaction.TypeBalance}

		m.locked(c)
		m.uow.EXPECT().UpdateCommission(gomock.Any(), gomock.Any()).Return(nil)
		m.uow.EXPECT().RecordTransaction(gomock.Any(), gomock.Any()).Return(commission.ErrAlreadyPaid)
		m.repo.EXPECT().GetPayment(gomock.Any(), c.ID, transaction.TypeBalance).Return(existing, nil)

		got, err := svc.ConfirmPayment(context.Background(), c.ID, transaction.TypeBalance, "PAY-2")

		require.NoError(t, err)
		assert.Equal(t, existing.ID, got.ID)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.ConfirmPayment(context.Background(), uuid.New(), "tip", "PAY-3")

		assert.ErrorIs(t, err, validation.ErrInvalid)
	})
}

func TestService_List(t *testing.T) {
	t.Run("ArtistScope", func(t *testing.T) {
		svc, m := newService(t)

		m.repo.EXPECT().
			ListCommissions(gomock.Any(), commission.ListFilter{ArtistID: &artistID}).
			Return([]*commission.Commission{}, nil)

		_, err := svc.List(context.Background(), artist, nil)
		assert.NoError(t, err)
	})

	t.Run("ClientScopeWithStatus", func(t *testing.T) {
		svc, m := newService(t)
		status := commission.StatusCompleted

		m.repo.EXPECT().
			ListCommissions(gomock.Any(), commission.ListFilter{ClientID: &clientID, Status: &status}).
			Return([]*commission.Commission{}, nil)

		_, err := svc.List(context.Background(), client, &status)
		assert.NoError(t, err)
	})

	t.Run("SystemRejected", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.List(context.Background(), identity.System, nil)
		assert.ErrorIs(t, err, commission.ErrNotAuthorized)
	})
}

func TestService_Get(t *testing.T) {
	c := fixture(commission.StatusPending)

	svc, m := newService(t)
	m.repo.EXPECT().GetCommission(gomock.Any(), c.ID).Return(&c, nil).Times(2)

	_, err := svc.Get(context.Background(), client, c.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), identity.Actor{ID: uuid.New(), Role: identity.RoleClient}, c.ID)
	assert.ErrorIs(t, err, commission.ErrNotAuthorized)
}
