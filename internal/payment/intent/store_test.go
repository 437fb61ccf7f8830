package intent_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/payment/intent"
	"github.com/RaniyaAK/arts/internal/transaction"
)

func newStore(t *testing.T) (*intent.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return intent.New(rdb, time.Hour), mr
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	want := &payment.Intent{
		ExternalReference: "PAY-1",
		CommissionID:      uuid.New(),
		Kind:              transaction.TypeBalance,
		Mode:              commission.PaymentModeOnline,
		Amount:            decimal.RequireFromString("700.50"),
		Currency:          "USD",
		RedirectURL:       "https://provider/approve",
		CreatedAt:         time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, s.Save(ctx, want))

	got, err := s.Get(ctx, "PAY-1")
	require.NoError(t, err)

	assert.Equal(t, want.CommissionID, got.CommissionID)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Mode, got.Mode)
	assert.True(t, want.Amount.Equal(got.Amount))
	assert.Equal(t, want.RedirectURL, got.RedirectURL)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, s.Delete(ctx, "PAY-1"))

	_, err = s.Get(ctx, "PAY-1")
	assert.ErrorIs(t, err, payment.ErrIntentNotFound)
}

func TestStore_Expires(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &payment.Intent{ExternalReference: "PAY-2", Amount: decimal.NewFromInt(1)}))
	assert.Equal(t, time.Hour, mr.TTL("payment:intent:PAY-2"))

	mr.FastForward(time.Hour + time.Second)

	_, err := s.Get(ctx, "PAY-2")
	assert.ErrorIs(t, err, payment.ErrIntentNotFound)
}

func TestStore_SaveRequiresReference(t *testing.T) {
	s, _ := newStore(t)

	assert.Error(t, s.Save(context.Background(), &payment.Intent{}))
}

func TestStore_RedisDown(t *testing.T) {
	s, mr := newStore(t)
	mr.Close()

	_, err := s.Get(context.Background(), "PAY-3")

	require.Error(t, err)
	assert.NotErrorIs(t, err, payment.ErrIntentNotFound)
}
