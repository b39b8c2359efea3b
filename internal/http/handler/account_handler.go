package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymchain/gymchain-api/internal/domain"
	"github.com/gymchain/gymchain-api/internal/http/response"
	"github.com/gymchain/gymchain-api/internal/observability"
	"github.com/gymchain/gymchain-api/internal/service"
)

type AccountHandler struct {
	svc service.AccountService
}

func NewAccountHandler(svc service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

type accountRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Active   *bool  `json:"active"`
}

func (b accountRequest) input() service.AccountInput {
	return service.AccountInput{
		Name:     b.Name,
		Email:    b.Email,
		Phone:    b.Phone,
		Password: b.Password,
		Active:   b.Active,
	}
}

func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	response.JSON(w, r, http.StatusOK, accounts)
}

func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid account id", nil)
		return
	}
	account, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "load account")
		return
	}
	response.JSON(w, r, http.StatusOK, account)
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body accountRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	created, err := h.svc.Create(r.Context(), body.input())
	if err != nil {
		writeServiceError(w, r, err, "create account")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "account.create",
		ActorUserID: actorID(r),
		TargetType:  "account",
		TargetID:    formatID(created.ID),
		Action:      "create",
		Outcome:     "success",
		Reason:      "account_created",
	}, "active", created.Active)
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid account id", nil)
		return
	}
	var body accountRequest
	if err := decodeJSON(r, &body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, body.input())
	if err != nil {
		writeServiceError(w, r, err, "update account")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "account.update",
		ActorUserID: actorID(r),
		TargetType:  "account",
		TargetID:    formatID(id),
		Action:      "update",
		Outcome:     "success",
		Reason:      "account_updated",
	}, "password_changed", body.Password != "")
	response.JSON(w, r, http.StatusOK, updated)
}

// SetActive takes a bare JSON boolean body.
func (h *AccountHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid account id", nil)
		return
	}
	var active *bool
	if err := decodeJSON(r, &active); err != nil || active == nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "body must be a JSON boolean", nil)
		return
	}
	if err := h.svc.SetActive(r.Context(), id, *active); err != nil {
		writeServiceError(w, r, err, "update account status")
		return
	}

	reason := "account_deactivated"
	if *active {
		reason = "account_activated"
	}
	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "account.set_active",
		ActorUserID: actorID(r),
		TargetType:  "account",
		TargetID:    formatID(id),
		Action:      "set_active",
		Outcome:     "success",
		Reason:      reason,
	})
	response.NoContent(w)
}

func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid account id", nil)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "delete account")
		return
	}

	observability.EmitAudit(r, observability.AuditInput{
		EventName:   "account.delete",
		ActorUserID: actorID(r),
		TargetType:  "account",
		TargetID:    formatID(id),
		Action:      "delete",
		Outcome:     "success",
		Reason:      "account_deleted",
	})
	response.NoContent(w)
}
