package inbound

import (
	"context"
)

type UpdateAffiliateStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes,omitempty"`
}

type AffiliateStatusView struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type UpdateAffiliateStatusResponse struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	Affiliate AffiliateStatusView `json:"affiliate"`
}

type DeleteAffiliateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AffiliateOwner struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

type AffiliateItem struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	ReferralCode string         `json:"referralCode"`
	CreatedAt    string         `json:"createdAt"`
	User         AffiliateOwner `json:"user"`
}

type ListAffiliatesRequest struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Status string `json:"status,omitempty"`
}

type ListAffiliatesResponse struct {
	Success    bool            `json:"success"`
	Affiliates []AffiliateItem `json:"affiliates"`
	Pagination PaginationInfo  `json:"pagination"`
}

type GetAffiliateResponse struct {
	Success   bool          `json:"success"`
	Affiliate AffiliateItem `json:"affiliate"`
}

type PaginationInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Actor identifies the authenticated admin performing a mutation.
type Actor struct {
	UserID string
}

type AffiliateAdminUseCase interface {
	UpdateStatus(ctx context.Context, actor Actor, affiliateID string, req UpdateAffiliateStatusRequest) (*UpdateAffiliateStatusResponse, error)
	Delete(ctx context.Context, actor Actor, affiliateID string) (*DeleteAffiliateResponse, error)
	List(ctx context.Context, req ListAffiliatesRequest) (*ListAffiliatesResponse, error)
	Get(ctx context.Context, affiliateID string) (*GetAffiliateResponse, error)
}
