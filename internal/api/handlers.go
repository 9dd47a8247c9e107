package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"
	"github.com/kotikvkofte/deal-service/internal/domain/deal"
	"github.com/kotikvkofte/deal-service/internal/usecase"

	"github.com/go-chi/chi/v5"
)

const userIDHeader = "X-User-Id"

type DealContractorSaver interface {
	Execute(ctx context.Context, params usecase.SaveDealContractorParams) (*contractor.DealContractor, error)
}

type DealContractorDeleter interface {
	Execute(ctx context.Context, id string) error
}

type ContractorRoleManager interface {
	Add(ctx context.Context, params usecase.ContractorRoleParams) error
	Delete(ctx context.Context, params usecase.ContractorRoleParams) error
}

type DealSaver interface {
	Execute(ctx context.Context, params usecase.SaveDealParams) (*deal.Deal, error)
}

type DealStatusChanger interface {
	Execute(ctx context.Context, params usecase.ChangeDealStatusParams) error
}

type DealGetter interface {
	Execute(ctx context.Context, id string) (*usecase.DealDTO, error)
}

type DictionaryService interface {
	Statuses(ctx context.Context) ([]deal.Status, error)
	Types(ctx context.Context) ([]deal.Type, error)
	SaveType(ctx context.Context, t deal.Type) error
}

// Services groups the use cases behind the REST handlers.
type Services struct {
	SaveDealContractor   DealContractorSaver
	DeleteDealContractor DealContractorDeleter
	ContractorRoles      ContractorRoleManager
	SaveDeal             DealSaver
	ChangeDealStatus     DealStatusChanger
	GetDeal              DealGetter
	Dictionaries         DictionaryService
}

type Handlers struct {
	svc Services
}

func NewHandlers(svc Services) *Handlers {
	return &Handlers{svc: svc}
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *Handlers) SaveDealContractor(w http.ResponseWriter, r *http.Request) {
	var params usecase.SaveDealContractorParams
	if err := decode(r, &params); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	params.UserID = r.Header.Get(userIDHeader)

	saved, err := h.svc.SaveDealContractor.Execute(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": saved.ID})
}

func (h *Handlers) DeleteDealContractor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDealContractor.Execute(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AddContractorRole(w http.ResponseWriter, r *http.Request) {
	var params usecase.ContractorRoleParams
	if err := decode(r, &params); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.svc.ContractorRoles.Add(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) DeleteContractorRole(w http.ResponseWriter, r *http.Request) {
	var params usecase.ContractorRoleParams
	if err := decode(r, &params); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.svc.ContractorRoles.Delete(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SaveDeal(w http.ResponseWriter, r *http.Request) {
	var params usecase.SaveDealParams
	if err := decode(r, &params); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	params.UserID = r.Header.Get(userIDHeader)

	saved, err := h.svc.SaveDeal.Execute(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": saved.ID})
}

func (h *Handlers) ChangeDealStatus(w http.ResponseWriter, r *http.Request) {
	var params usecase.ChangeDealStatusParams
	if err := decode(r, &params); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.svc.ChangeDealStatus.Execute(r.Context(), params); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) GetDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDeal.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) ListDealStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.svc.Dictionaries.Statuses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *Handlers) ListDealTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.svc.Dictionaries.Types(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *Handlers) SaveDealType(w http.ResponseWriter, r *http.Request) {
	var t deal.Type
	if err := decode(r, &t); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	if err := h.svc.Dictionaries.SaveType(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
