package entity

import "time"

// Affiliate is the one-to-one extension of an AFFILIATE user. It is owned by
// the user row and removed with it.
type Affiliate struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ReferralCode string    `json:"referralCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewAffiliate(id, userID, referralCode string, now time.Time) *Affiliate {
	return &Affiliate{
		ID:           id,
		UserID:       userID,
		ReferralCode: referralCode,
		CreatedAt:    now,
	}
}

// AffiliateWithOwner is an affiliate joined with its owning user.
type AffiliateWithOwner struct {
	Affiliate
	User User `json:"user"`
}
