package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/refferq/refferq/application/port/inbound"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/infrastructure/http/middleware"
	"github.com/refferq/refferq/infrastructure/http/response"
)

// AffiliateAdminHandler serves /admin/affiliates. Every route sits behind
// RequireAdmin.
type AffiliateAdminHandler struct {
	useCase inbound.AffiliateAdminUseCase
}

func NewAffiliateAdminHandler(useCase inbound.AffiliateAdminUseCase) *AffiliateAdminHandler {
	return &AffiliateAdminHandler{useCase: useCase}
}

func (h *AffiliateAdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req inbound.UpdateAffiliateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	res, err := h.useCase.UpdateStatus(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func (h *AffiliateAdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.useCase.Delete(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func (h *AffiliateAdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := inbound.ListAffiliatesRequest{
		Page:   atoiOrZero(q.Get("page")),
		Limit:  atoiOrZero(q.Get("limit")),
		Status: q.Get("status"),
	}

	res, err := h.useCase.List(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func (h *AffiliateAdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.useCase.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func actorFrom(w http.ResponseWriter, r *http.Request) (inbound.Actor, bool) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		response.FromError(w, apperr.ErrUnauthenticated("User not authenticated"))
		return inbound.Actor{}, false
	}
	return inbound.Actor{UserID: user.ID}, true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
