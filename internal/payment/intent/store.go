package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/commission"
	"github.com/RaniyaAK/arts/internal/payment"
	"github.com/RaniyaAK/arts/internal/transaction"
)

const keyPrefix = "payment:intent:"

// Store keeps payment intents in Redis until the provider calls back or they expire.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

type record struct {
	CommissionID uuid.UUID       `json:"commission_id"`
	Kind         string          `json:"kind"`
	Mode         string          `json:"mode"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	RedirectURL  string          `json:"redirect_url"`
	CreatedAt    time.Time       `json:"created_at"`
}

func key(ref string) string {
	return keyPrefix + ref
}

func (s *Store) Save(ctx context.Context, i *payment.Intent) error {
	if i.ExternalReference == "" {
		return errors.New("saving payment intent: missing external reference")
	}

	b, err := json.Marshal(record{
		CommissionID: i.CommissionID,
		Kind:         string(i.Kind),
		Mode:         string(i.Mode),
		Amount:       i.Amount,
		Currency:     i.Currency,
		RedirectURL:  i.RedirectURL,
		CreatedAt:    i.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding payment intent: %w", err)
	}

	if err := s.rdb.Set(ctx, key(i.ExternalReference), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing payment intent: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, ref string) (*payment.Intent, error) {
	b, err := s.rdb.Get(ctx, key(ref)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, payment.ErrIntentNotFound
		}

		return nil, fmt.Errorf("loading payment intent: %w", err)
	}

	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decoding payment intent: %w", err)
	}

	return &payment.Intent{
		ExternalReference: ref,
		CommissionID:      r.CommissionID,
		Kind:              transaction.Type(r.Kind),
		Mode:              commission.PaymentMode(r.Mode),
		Amount:            r.Amount,
		Currency:          r.Currency,
		RedirectURL:       r.RedirectURL,
		CreatedAt:         r.CreatedAt,
	}, nil
}

func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := s.rdb.Del(ctx, key(ref)).Err(); err != nil {
		return fmt.Errorf("deleting payment intent: %w", err)
	}

	return nil
}
