package payment_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/transaction"
	"github.com/RaniyaAK/arts/internal/validation"
)

var (
	clientID = uuid.New()
	client   = identity.Actor{ID: clientID, Role: identity.RoleClient, Name: "Carla"}
)

type mocks struct {
	commissions *payment.MockCommissions
	gateway     *payment.MockGateway
	intents     *payment.MockIntentStore
}

func newService(t *testing.T) (*payment.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		commissions: payment.NewMockCommissions(ctrl),
		gateway:     payment.NewMockGateway(ctrl),
		intents:     payment.NewMockIntentStore(ctrl),
	}

	opts := payment.Options{
		Currency:  "USD",
		ReturnURL: "http://localhost:8080/api/v1/payments/return",
		CancelURL: "http://localhost:3000/commissions",
	}

	return payment.NewService(m.commissions, m.gateway, m.intents, opts, zerolog.Nop()), m
}

func testCommission(status commission.Status, opts ...func(c *commission.Commission)) *commission.Commission {
	c := &commission.Commission{
		ID:            uuid.New(),
		Code:          "PAL-XYZ789",
		ClientID:      clientID,
		ArtistID:      uuid.New(),
		Title:         "Landscape",
		Status:        status,
		TotalPrice:    decimal.NewFromInt(1000),
		AdvanceAmount: decimal.NewFromInt(300),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func TestService_Initiate(t *testing.T) {
	type testCase struct {
		name       string
		commission *commission.Commission
		actor      identity.Actor
		kind       transaction.Type
		mode       commission.PaymentMode
		setupMock  func(m mocks, c *commission.Commission)
		wantAmount string
		wantOnline bool
		wantErr    error
	}

	tests := []testCase{
		{
			name:       "AdvanceOnline",
			commission: testCommission(commission.StatusAccepted),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			setupMock: func(m mocks, c *commission.Commission) {
				m.gateway.EXPECT().
					CreatePayment(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req payment.CreateRequest) (*payment.Created, error) {
						assert.Equal(t, "300.00", req.Amount.StringFixed(2))
						assert.Equal(t, "USD", req.Currency)

						u, err := url.Parse(req.ReturnURL)
						require.NoError(t, err)
						assert.Equal(t, c.ID.String(), u.Query().Get("commission"))
						assert.Equal(t, "advance", u.Query().Get("kind"))

						return &payment.Created{ID: "PAY-1", ApprovalURL: "https://provider/approve?token=1"}, nil
					})
				m.intents.EXPECT().
					Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, i *payment.Intent) error {
						assert.Equal(t, "PAY-1", i.ExternalReference)
						assert.Equal(t, c.ID, i.CommissionID)
						return nil
					})
			},
			wantAmount: "300.00",
			wantOnline: true,
		},
		{
			name:       "AdvanceInPending",
			commission: testCommission(commission.StatusPending),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			setupMock: func(m mocks, _ *commission.Commission) {
				m.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
					Return(&payment.Created{ID: "PAY-2", ApprovalURL: "https://provider/approve"}, nil)
				m.intents.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantAmount: "300.00",
			wantOnline: true,
		},
		{
			name:       "AdvanceAlreadyPaid",
			commission: testCommission(commission.StatusAdvancePaid, func(c *commission.Commission) { c.AdvancePaid = true }),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			wantErr:    commission.ErrAlreadyPaid,
		},
		{
			name:       "AdvanceNotSet",
			commission: testCommission(commission.StatusAccepted, func(c *commission.Commission) { c.AdvanceAmount = decimal.Zero }),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			wantErr:    commission.ErrNotSet,
		},
		{
			name: "AdvanceWithoutTotal",
			commission: testCommission(commission.StatusPending, func(c *commission.Commission) {
				c.TotalPrice = decimal.Zero
				c.AdvanceAmount = decimal.NewFromInt(250)
			}),
			actor:   client,
			kind:    transaction.TypeAdvance,
			mode:    commission.PaymentModeOnline,
			wantErr: commission.ErrNotSet,
		},
		{
			name:       "AdvanceAfterCancel",
			commission: testCommission(commission.StatusCancelled),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			wantErr:    commission.ErrInvalidStage,
		},
		{
			name:       "AdvanceOffline",
			commission: testCommission(commission.StatusAccepted),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOffline,
			wantErr:    validation.ErrInvalid,
		},
		{
			name: "BalanceOnline",
			commission: testCommission(commission.StatusCompleted, func(c *commission.Commission) {
				c.AdvancePaid = true
			}),
			actor: client,
			kind:  transaction.TypeBalance,
			mode:  commission.PaymentModeOnline,
			setupMock: func(m mocks, c *commission.Commission) {
				m.commissions.EXPECT().
					ChooseBalanceMode(gomock.Any(), c.ID, client, commission.PaymentModeOnline).
					Return(c, nil)
				m.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).
					Return(&payment.Created{ID: "PAY-3", ApprovalURL: "https://provider/approve"}, nil)
				m.intents.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantAmount: "700.00",
			wantOnline: true,
		},
		{
			name: "BalanceOffline",
			commission: testCommission(commission.StatusCompleted, func(c *commission.Commission) {
				c.AdvancePaid = true
			}),
			actor: client,
			kind:  transaction.TypeBalance,
			mode:  commission.PaymentModeOffline,
			setupMock: func(m mocks, c *commission.Commission) {
				m.commissions.EXPECT().
					ChooseBalanceMode(gomock.Any(), c.ID, client, commission.PaymentModeOffline).
					Return(c, nil)
			},
			wantAmount: "700.00",
		},
		{
			name:       "BalanceBeforeCompletion",
			commission: testCommission(commission.StatusInProgress, func(c *commission.Commission) { c.AdvancePaid = true }),
			actor:      client,
			kind:       transaction.TypeBalance,
			mode:       commission.PaymentModeOnline,
			wantErr:    commission.ErrInvalidStage,
		},
		{
			name: "BalanceNothingRemaining",
			commission: testCommission(commission.StatusCompleted, func(c *commission.Commission) {
				c.AdvancePaid = true
				c.AdvanceAmount = c.TotalPrice
			}),
			actor:   client,
			kind:    transaction.TypeBalance,
			mode:    commission.PaymentModeOnline,
			wantErr: commission.ErrNotSet,
		},
		{
			name:       "ArtistCannotPay",
			commission: testCommission(commission.StatusAccepted),
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			wantErr:    commission.ErrNotAuthorized,
		},
		{
			name:       "ProviderDown",
			commission: testCommission(commission.StatusAccepted),
			actor:      client,
			kind:       transaction.TypeAdvance,
			mode:       commission.PaymentModeOnline,
			setupMock: func(m mocks, _ *commission.Commission) {
				m.gateway.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(nil, errors.New("503"))
			},
			wantErr: payment.ErrPaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			actor := tt.actor
			if actor.ID == uuid.Nil {
				actor = identity.Actor{ID: tt.commission.ArtistID, Role: identity.RoleArtist}
			}

			m.commissions.EXPECT().Get(gomock.Any(), actor, tt.commission.ID).Return(tt.commission, nil)

			if tt.setupMock != nil {
				tt.setupMock(m, tt.commission)
			}

			got, err := svc.Initiate(context.Background(), tt.commission.ID, actor, tt.kind, tt.mode)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, got.Amount.StringFixed(2))
			assert.Equal(t, tt.wantOnline, got.Online())

			if !tt.wantOnline {
				assert.Empty(t, got.RedirectURL)
			}
		})
	}
}

func TestService_Initiate_UnknownKind(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Initiate(context.Background(), uuid.New(), client, "tip", commission.PaymentModeOnline)

	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestService_Confirm(t *testing.T) {
	type testCase struct {
		name      string
		paid      bool
		params    payment.ConfirmParams
		setupMock func(m mocks, c *commission.Commission)
		wantErr   error
	}

	advance := payment.ConfirmParams{Kind: transaction.TypeAdvance, ExternalReference: "PAY-1", PayerID: "PAYER"}

	tests := []testCase{
		{
			name:   "Success",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					ExternalReference: "PAY-1", CommissionID: c.ID, Kind: transaction.TypeAdvance,
					Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").Return(&payment.Execution{
					ID: "PAY-1", State: payment.StateApproved, Amount: decimal.RequireFromString("300.00"),
				}, nil)
				m.commissions.EXPECT().
					ConfirmPayment(gomock.Any(), c.ID, transaction.TypeAdvance, "PAY-1").
					Return(&transaction.Transaction{ID: uuid.New(), Type: transaction.TypeAdvance}, nil)
				m.intents.EXPECT().Delete(gomock.Any(), "PAY-1").Return(nil)
			},
		},
		{
			name:   "AlreadyPaidSkipsProvider",
			paid:   true,
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.commissions.EXPECT().
					ConfirmPayment(gomock.Any(), c.ID, transaction.TypeAdvance, "PAY-1").
					Return(&transaction.Transaction{ID: uuid.New(), Type: transaction.TypeAdvance}, nil)
			},
		},
		{
			name:   "IntentDeleteFailureIgnored",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").Return(&payment.Execution{
					State: payment.StateApproved, Amount: decimal.NewFromInt(300),
				}, nil)
				m.commissions.EXPECT().ConfirmPayment(gomock.Any(), c.ID, transaction.TypeAdvance, "PAY-1").
					Return(&transaction.Transaction{}, nil)
				m.intents.EXPECT().Delete(gomock.Any(), "PAY-1").Return(errors.New("redis gone"))
			},
		},
		{
			name:   "UnknownIntent",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(nil, payment.ErrIntentNotFound)
				m.commissions.EXPECT().Get(gomock.Any(), identity.System, c.ID).Return(c, nil)
			},
			wantErr: payment.ErrPaymentFailed,
		},
		{
			name:   "IntentForOtherCommission",
			params: advance,
			setupMock: func(m mocks, _ *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: uuid.New(), Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
			},
			wantErr: payment.ErrPaymentFailed,
		},
		{
			name:   "NotApproved",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").Return(&payment.Execution{
					State: "failed", Amount: decimal.NewFromInt(300),
				}, nil)
				m.commissions.EXPECT().Get(gomock.Any(), identity.System, c.ID).Return(c, nil)
			},
			wantErr: payment.ErrPaymentFailed,
		},
		{
			name:   "AmountMismatch",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").Return(&payment.Execution{
					State: payment.StateApproved, Amount: decimal.NewFromInt(30),
				}, nil)
			},
			wantErr: payment.ErrPaymentFailed,
		},
		{
			name:   "ProviderError",
			params: advance,
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").Return(nil, errors.New("timeout"))
				m.commissions.EXPECT().Get(gomock.Any(), identity.System, c.ID).Return(c, nil)
			},
			wantErr: payment.ErrPaymentFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			c := testCommission(commission.StatusAccepted, func(c *commission.Commission) { c.AdvancePaid = tt.paid })
			m.commissions.EXPECT().Get(gomock.Any(), identity.System, c.ID).Return(c, nil)

			if tt.setupMock != nil {
				tt.setupMock(m, c)
			}

			got, err := svc.Confirm(context.Background(), c.ID, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestService_Confirm_ConcurrentDuplicate(t *testing.T) {
	advance := payment.ConfirmParams{Kind: transaction.TypeAdvance, ExternalReference: "PAY-1", PayerID: "PAYER"}
	recorded := &transaction.Transaction{ID: uuid.New(), Type: transaction.TypeAdvance}

	type testCase struct {
		name      string
		setupMock func(m mocks, c *commission.Commission)
	}

	tests := []testCase{
		{
			name: "ProviderRejectsSecondExecute",
			setupMock: func(m mocks, c *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
					CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
				}, nil)
				m.gateway.EXPECT().ExecutePayment(gomock.Any(), "PAY-1", "PAYER").
					Return(nil, errors.New("PAYMENT_ALREADY_DONE"))
			},
		},
		{
			name: "IntentAlreadyConsumed",
			setupMock: func(m mocks, _ *commission.Commission) {
				m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(nil, payment.ErrIntentNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			unpaid := testCommission(commission.StatusAccepted)
			settled := *unpaid
			settled.Status = commission.StatusAdvancePaid
			settled.AdvancePaid = true

			gomock.InOrder(
				m.commissions.EXPECT().Get(gomock.Any(), identity.System, unpaid.ID).Return(unpaid, nil),
				m.commissions.EXPECT().Get(gomock.Any(), identity.System, unpaid.ID).Return(&settled, nil),
			)
			tt.setupMock(m, unpaid)
			m.commissions.EXPECT().
				ConfirmPayment(gomock.Any(), unpaid.ID, transaction.TypeAdvance, "PAY-1").
				Return(recorded, nil)

			got, err := svc.Confirm(context.Background(), unpaid.ID, advance)

			require.NoError(t, err)
			assert.Equal(t, recorded, got)
		})
	}
}

func TestService_Confirm_CancelledBeforeCapture(t *testing.T) {
	svc, m := newService(t)

	c := testCommission(commission.StatusCancelled)
	m.commissions.EXPECT().Get(gomock.Any(), identity.System, c.ID).Return(c, nil)
	m.intents.EXPECT().Get(gomock.Any(), "PAY-1").Return(&payment.Intent{
		CommissionID: c.ID, Kind: transaction.TypeAdvance, Amount: decimal.NewFromInt(300),
	}, nil)

	got, err := svc.Confirm(context.Background(), c.ID,
		payment.ConfirmParams{Kind: transaction.TypeAdvance, ExternalReference: "PAY-1", PayerID: "PAYER"})

	assert.ErrorIs(t, err, commission.ErrInvalidStage)
	assert.Nil(t, got)
}

func TestService_Confirm_MissingReference(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Confirm(context.Background(), uuid.New(), payment.ConfirmParams{Kind: transaction.TypeAdvance})

	assert.ErrorIs(t, err, validation.ErrInvalid)
}
