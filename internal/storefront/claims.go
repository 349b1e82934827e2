package storefront

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// LoginClaims is the typed JWT handed to the storefront when a punchout
// session is activated.
type LoginClaims struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	SessionID   uuid.UUID `json:"session_id"`
	BuyerCookie string    `json:"buyer_cookie"`
	jwt.RegisteredClaims
}

// MintLoginToken issues a signed JWT for the activated session.
func MintLoginToken(cfg config.JWTConfig, now time.Time, claims LoginClaims) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if claims.CustomerID == uuid.Nil {
		return "", fmt.Errorf("customer ID is required")
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiration())),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseLoginToken validates the JWT string and returns typed claims.
func ParseLoginToken(cfg config.JWTConfig, tokenString string) (*LoginClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &LoginClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}
