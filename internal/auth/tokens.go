package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ulyban/contactbook/pkg/utilities"
)

var (
	// ErrTokenExpired is reported separately from ErrTokenInvalid for
	// diagnostics; both reject the request the same way.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the JWT payload for every token the issuer mints. Subject carries
// the user id; Email is present on access and reset tokens only.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenPair is an access/refresh pair with computed expiry instants.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer mints and verifies HS256 tokens. Access, refresh, and reset
// tokens are signed with distinct secrets so one class can never stand in for
// another.
type TokenIssuer struct {
	cfg Config
}

func NewTokenIssuer(cfg Config) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

// Pair mints an access token carrying {user id, email} and a refresh token
// carrying the user id only. Each token gets a fresh jti so rotation always
// produces a distinct credential.
func (t *TokenIssuer) Pair(userID, email string) (TokenPair, error) {
	access, accessExp, err := t.sign(userID, email, t.cfg.AccessSecret, t.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := t.sign(userID, "", t.cfg.RefreshSecret, t.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ResetToken mints a short-lived token bound to {user id, email} for the
// password-reset flow.
func (t *TokenIssuer) ResetToken(userID, email string) (string, error) {
	token, _, err := t.sign(userID, email, t.cfg.ResetSecret, t.cfg.ResetTTL)
	return token, err
}

// VerifyAccess checks signature and expiry of an access token.
func (t *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return t.parse(token, t.cfg.AccessSecret)
}

// VerifyRefresh checks signature and expiry of a refresh token.
func (t *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return t.parse(token, t.cfg.RefreshSecret)
}

// VerifyReset checks signature and expiry of a password-reset token.
func (t *TokenIssuer) VerifyReset(token string) (*Claims, error) {
	return t.parse(token, t.cfg.ResetSecret)
}

func (t *TokenIssuer) sign(userID, email string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utilities.NewKSUID(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (t *TokenIssuer) parse(token string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
