package security

import (
	"testing"
	"time"

	"rentacar-ledger/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	tok, err := tm.GenerateAccessToken("GRENTER")
	require.NoError(t, err)

	claims, err := tm.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, domain.Address("GRENTER"), claims.Address)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Rejections(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute)

	t.Run("Invalid address", func(t *testing.T) {
		_, err := tm.GenerateAccessToken("")
		assert.ErrorIs(t, err, domain.ErrInvalidAddress)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		tok, err := NewTokenManager("another-secret-another-secret-xx", time.Minute).GenerateAccessToken("GRENTER")
		require.NoError(t, err)
		_, err = tm.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		claims := AddressClaims{
			Address: "GRENTER",
			Type:    TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "GRENTER",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("Wrong type", func(t *testing.T) {
		claims := AddressClaims{
			Address: "GRENTER",
			Type:    "refresh",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "GRENTER",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				Issuer:    issuer,
				Audience:  jwt.ClaimStrings{audience},
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = tm.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}
