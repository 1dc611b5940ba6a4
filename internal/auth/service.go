package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"time"

	"github.com/ulyban/contactbook/internal/auth/entity"
	"github.com/ulyban/contactbook/internal/mailer"
	userentity "github.com/ulyban/contactbook/internal/user/entity"
	"github.com/ulyban/contactbook/pkg/utilities"
)

// Users is the slice of the user service the session flows need.
// *user.Service is the production implementation.
type Users interface {
	Authenticate(ctx context.Context, email, password string) (*userentity.User, error)
	GetByID(ctx context.Context, id string) (*userentity.User, error)
	GetByEmail(ctx context.Context, email string) (*userentity.User, error)
	ReplacePassword(ctx context.Context, id, newPassword string) error
}

// Sessions is the data-access contract for session rows.
// *repo.SessionRepo is the Postgres implementation.
type Sessions interface {
	Replace(ctx context.Context, s *entity.Session) error
	GetByRefreshToken(ctx context.Context, token string) (*entity.Session, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Session, error)
	Rotate(ctx context.Context, id, accessToken, refreshToken string, accessExp, refreshExp time.Time) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// Mailer dispatches a rendered HTML message.
type Mailer interface {
	Send(from, to, subject, htmlBody string) error
}

var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidResetToken   = errors.New("token is expired or invalid")
	ErrSessionNotFound     = errors.New("session not found")
	// ErrMailDelivery hides the SMTP failure cause from the caller.
	ErrMailDelivery = errors.New("failed to send the email, please try again later")
)

// Service orchestrates the session lifecycle: login, refresh rotation, logout,
// and password reset. It performs no logging and no retries; the first failing
// collaborator call fails the whole operation.
type Service struct {
	users    Users
	sessions Sessions
	tokens   *TokenIssuer
	mailer   Mailer
	cfg      Config
}

func NewService(users Users, sessions Sessions, tokens *TokenIssuer, m Mailer, cfg Config) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, mailer: m, cfg: cfg}
}

// Login verifies credentials, mints a token pair, and replaces any previous
// session for the user with a fresh row.
func (s *Service) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	pair, err := s.tokens.Pair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	sess := &entity.Session{
		ID:                     utilities.NewKSUID(),
		UserID:                 u.ID,
		AccessToken:            pair.AccessToken,
		RefreshToken:           pair.RefreshToken,
		AccessTokenValidUntil:  pair.AccessExpiresAt,
		RefreshTokenValidUntil: pair.RefreshExpiresAt,
		CreatedAt:              time.Now().UTC(),
	}
	if err := s.sessions.Replace(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the session row
// in place. The presented token must verify AND still be the one stored on a
// session row; a rotated-away token fails even though its signature is valid.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}
	u, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	pair, err := s.tokens.Pair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}
	rows, err := s.sessions.Rotate(ctx, sess.ID, pair.AccessToken, pair.RefreshToken,
		pair.AccessExpiresAt, pair.RefreshExpiresAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// row deleted between lookup and rotate (logout raced us)
		return nil, ErrInvalidRefreshToken
	}
	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.AccessTokenValidUntil = pair.AccessExpiresAt
	sess.RefreshTokenValidUntil = pair.RefreshExpiresAt
	return sess, nil
}

// Logout deletes the session row matching the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrInvalidRefreshToken
	}
	sess, err := s.sessions.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	if sess.RefreshToken != refreshToken {
		return ErrInvalidRefreshToken
	}
	if _, err := s.sessions.DeleteByID(ctx, sess.ID); err != nil {
		return err
	}
	return nil
}

// RequestPasswordReset issues a short-lived reset token for the account and
// mails it as a link. Unknown emails surface as user.ErrNotFound; SMTP
// failures collapse into ErrMailDelivery.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := s.tokens.ResetToken(u.ID, u.Email)
	if err != nil {
		return err
	}
	link := s.cfg.AppDomain + "/reset-password?token=" + url.QueryEscape(token)
	subject, body, err := mailer.RenderResetEmail(u.Name, link)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(s.cfg.EmailFrom, u.Email, subject, body); err != nil {
		return ErrMailDelivery
	}
	return nil
}

// ResetPassword verifies the reset token, replaces the stored hash, and
// deletes the user's session so every outstanding token dies with it.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.VerifyReset(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	if err := s.users.ReplacePassword(ctx, claims.Subject, newPassword); err != nil {
		return err
	}
	if _, err := s.sessions.DeleteByUserID(ctx, claims.Subject); err != nil {
		return err
	}
	return nil
}
