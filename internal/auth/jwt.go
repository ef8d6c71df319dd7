package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims. The role is not carried: it is re-read
// from the roster on every request.
type Claims struct {
	AdminID   string `json:"admin_id"`
	Matricula string `json:"matricula"`
	jwt.RegisteredClaims
}

// TokenExpiry is the session lifetime, one long shift.
const TokenExpiry = 12 * time.Hour

// Issuer identifies tokens signed by this server.
const Issuer = "sentinela"

// GenerateToken creates a new JWT for an admin with a unique JTI.
func GenerateToken(secret, adminID, matricula string) (string, error) {
	now := time.Now()
	claims := Claims{
		AdminID:   adminID,
		Matricula: matricula,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   adminID,
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AdminID == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
