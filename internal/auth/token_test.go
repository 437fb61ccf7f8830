package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaniyaAK/arts/internal/identity"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour, "palette")
	actor := identity.Actor{ID: uuid.New(), Role: identity.RoleArtist, Name: "Ana"}

	raw, expires, err := iss.Issue(actor)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	got, err := iss.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, actor, got)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("s3cret", time.Hour, "palette")
	actor := identity.Actor{ID: uuid.New(), Role: identity.RoleClient}

	raw, _, err := iss.Issue(actor)
	require.NoError(t, err)

	t.Run("WrongSecret", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour, "palette").Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		_, err := NewIssuer("s3cret", time.Hour, "elsewhere").Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		late := NewIssuer("s3cret", time.Hour, "palette")
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

		_, err := late.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := iss.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoneAlgorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			Issuer:    "palette",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		forged, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = iss.Parse(forged)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
