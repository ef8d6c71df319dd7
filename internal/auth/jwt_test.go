package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "admin-1", "100")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, "100", claims.Matricula)
	assert.NotEmpty(t, claims.ID)
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	a, _ := GenerateToken("s", "admin-1", "100")
	b, _ := GenerateToken("s", "admin-1", "100")

	ca, err := ValidateToken("s", a)
	require.NoError(t, err)
	cb, err := ValidateToken("s", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "admin-1", "100")

	_, err := ValidateToken("secret2", token)
	assert.Error(t, err)
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, "admin-1", "100")
	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	// Should be within a few seconds.
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), claims.ExpiresAt.Time, 5*time.Second)
}

func TestValidateTokenRejectsForeignClaims(t *testing.T) {
	secret := "test"
	sign := func(c Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims Claims
	}{
		{"other issuer", Claims{AdminID: "a", RegisteredClaims: jwt.RegisteredClaims{Issuer: "other", ExpiresAt: exp}}},
		{"no expiry", Claims{AdminID: "a", RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}},
		{"no admin", Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, ExpiresAt: exp}}},
		{"expired", Claims{AdminID: "a", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: Issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(secret, sign(tt.claims))
			assert.Error(t, err)
		})
	}
}
