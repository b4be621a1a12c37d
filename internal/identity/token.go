package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zaidAlkhathlan/ramdan/internal/domain"
)

const tokenLifetime = 24 * time.Hour

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(key []byte, issuer string) *TokenIssuer {
	return &TokenIssuer{key: key, issuer: issuer, now: time.Now}
}

func (t *TokenIssuer) Issue(account domain.Account) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	})
	return token.SignedString(t.key)
}

func (t *TokenIssuer) Verify(raw string) (userID, email string, err error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(t.issuer))
	if err != nil {
		return "", "", domain.ErrInvalidCredentials
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || c.Subject == "" {
		return "", "", domain.ErrInvalidCredentials
	}
	return c.Subject, c.Email, nil
}
