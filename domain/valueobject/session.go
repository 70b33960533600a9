package valueobject

import "time"

// UserProfile is the public view of a user carried in a session.
type UserProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	HasAffiliate bool   `json:"hasAffiliate"`
}

// Session is what a successful login or refresh hands back to the client.
// The client may cache it but the server stays the source of truth.
type Session struct {
	AccessToken      string      `json:"accessToken"`
	RefreshToken     string      `json:"refreshToken"`
	ExpiresIn        int         `json:"expiresIn"`
	AccessExpiresAt  time.Time   `json:"accessExpiresAt"`
	RefreshExpiresIn int         `json:"-"`
	User             UserProfile `json:"user"`
	RedirectTo       string      `json:"redirectTo"`
}
