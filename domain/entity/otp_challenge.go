package entity

import "time"

// OTPChallenge is the server-held half of the email login ritual. Only the
// hash of the code is kept.
type OTPChallenge struct {
	Email     string
	CodeHash  string
	Attempts  int
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func NewOTPChallenge(email, codeHash string, now time.Time, ttl time.Duration) *OTPChallenge {
	return &OTPChallenge{
		Email:     NormalizeEmail(email),
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// InCooldown reports whether a new code was requested too soon after this one.
func (c *OTPChallenge) InCooldown(now time.Time, cooldown time.Duration) bool {
	return now.Sub(c.IssuedAt) < cooldown
}

// AttemptsExhausted reports whether no further attempt may follow.
func (c *OTPChallenge) AttemptsExhausted(max int) bool {
	return max > 0 && c.Attempts >= max
}

// AttemptsExceeded reports whether the latest reserved attempt is past max.
func (c *OTPChallenge) AttemptsExceeded(max int) bool {
	return max > 0 && c.Attempts > max
}
