package commission

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/money"
)

// Prices may only change before any money has moved.
var priceStages = []Status{StatusPending, StatusAccepted}

func checkPricing(c *Commission, actor identity.Actor) error {
	if actor.ID != c.ArtistID || actor.Role != identity.RoleArtist {
		return ErrNotAuthorized
	}

	if !allowed(c.Status, priceStages) {
		return fmt.Errorf("%w: commission is %s", ErrInvalidStage, c.Status)
	}

	return nil
}

func hasCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

// SetTotalPrice sets the price and resets the advance to the default share.
func SetTotalPrice(c Commission, actor identity.Actor, amount decimal.Decimal, now time.Time) (Commission, error) {
	if err := checkPricing(&c, actor); err != nil {
		return Commission{}, err
	}

	if !amount.IsPositive() || !hasCents(amount) {
		return Commission{}, fmt.Errorf("%w: total price must be positive with at most two decimals", ErrInvalidAmount)
	}

	c.TotalPrice = amount
	c.AdvanceAmount = money.Advance(amount)
	c.UpdatedAt = now

	return c, c.Check()
}

// SetAdvanceAmount overrides the advance. It may precede the total price.
func SetAdvanceAmount(c Commission, actor identity.Actor, amount decimal.Decimal, now time.Time) (Commission, error) {
	if err := checkPricing(&c, actor); err != nil {
		return Commission{}, err
	}

	if amount.IsNegative() || !hasCents(amount) {
		return Commission{}, fmt.Errorf("%w: advance must not be negative and have at most two decimals", ErrInvalidAmount)
	}

	if !c.TotalPrice.IsZero() && amount.GreaterThan(c.TotalPrice) {
		return Commission{}, fmt.Errorf("%w: advance %s exceeds total price %s",
			ErrInvalidAmount, amount.StringFixed(2), c.TotalPrice.StringFixed(2))
	}

	c.AdvanceAmount = amount
	c.UpdatedAt = now

	return c, c.Check()
}
