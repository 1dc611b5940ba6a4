package entity

import "time"

// Session binds a user to their currently valid token pair. At most one row
// exists per user; its presence is what keeps an access token honored, so
// deleting the row revokes every outstanding token at once.
type Session struct {
	ID                     string    `json:"id" db:"id"`
	UserID                 string    `json:"user_id" db:"user_id"`
	AccessToken            string    `json:"-" db:"access_token"`
	RefreshToken           string    `json:"-" db:"refresh_token"`
	AccessTokenValidUntil  time.Time `json:"access_token_valid_until" db:"access_token_valid_until"`
	RefreshTokenValidUntil time.Time `json:"refresh_token_valid_until" db:"refresh_token_valid_until"`
	CreatedAt              time.Time `json:"created_at" db:"created_at"`
}
