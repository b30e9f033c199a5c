package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"rentacar-ledger/internal/domain"
	"rentacar-ledger/internal/service"

	"github.com/gorilla/mux"
)

// ContractHandler exposes the contract over HTTP. The authenticated caller
// travels in the request context; handlers never decide authorization.
type ContractHandler struct {
	svc service.ContractService
}

func NewContractHandler(svc service.ContractService) *ContractHandler {
	return &ContractHandler{svc: svc}
}

type initializeRequest struct {
	Admin domain.Address `json:"admin"`
	Token domain.Address `json:"token"`
}

type addCarRequest struct {
	Owner       domain.Address `json:"owner"`
	PricePerDay domain.Amount  `json:"price_per_day"`
}

type rentalRequest struct {
	Renter          domain.Address `json:"renter"`
	TotalDaysToRent uint32         `json:"total_days_to_rent"`
	Amount          domain.Amount  `json:"amount"`
}

type amountRequest struct {
	Amount domain.Amount `json:"amount"`
}

type adminAmountRequest struct {
	Admin  domain.Address `json:"admin"`
	Amount domain.Amount  `json:"amount"`
}

type adminFeeRequest struct {
	Admin domain.Address `json:"admin"`
	Fee   domain.Amount  `json:"fee"`
}

type amountResponse struct {
	Amount  domain.Amount `json:"amount"`
	Display string        `json:"display"`
}

func newAmountResponse(a domain.Amount) amountResponse {
	return amountResponse{Amount: a, Display: a.Display()}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathAddress(r *http.Request, name string) domain.Address {
	return domain.Address(mux.Vars(r)[name])
}

func (h *ContractHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ContractHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.Initialize(r.Context(), req.Admin, req.Token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ContractHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	admin, err := h.svc.GetAdmin(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.Address{"admin": admin})
}

func (h *ContractHandler) AddCar(w http.ResponseWriter, r *http.Request) {
	var req addCarRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.AddCar(r.Context(), req.Owner, req.PricePerDay); err != nil {
		writeError(w, r, err)
		return
	}
	car, err := h.svc.GetCar(r.Context(), req.Owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, domain.CarListing{Owner: req.Owner, Car: *car})
}

func (h *ContractHandler) RemoveCar(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveCar(r.Context(), pathAddress(r, "owner")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContractHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	owner := pathAddress(r, "owner")
	car, err := h.svc.GetCar(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.CarListing{Owner: owner, Car: *car})
}

func (h *ContractHandler) GetCarStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.GetCarStatus(r.Context(), pathAddress(r, "owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.CarStatus{"car_status": status})
}

func (h *ContractHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	cars, err := h.svc.ListCars(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.CarListing{"cars": cars})
}

func (h *ContractHandler) QuoteRental(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.ParseUint(r.URL.Query().Get("days"), 10, 32)
	if err != nil {
		writeBadRequest(w, "days must be a positive integer")
		return
	}
	quote, err := h.svc.QuoteRental(r.Context(), pathAddress(r, "owner"), uint32(days))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(quote))
}

func (h *ContractHandler) Rental(w http.ResponseWriter, r *http.Request) {
	var req rentalRequest
	if !decode(w, r, &req) {
		return
	}
	owner := pathAddress(r, "owner")
	if err := h.svc.Rental(r.Context(), req.Renter, owner, req.TotalDaysToRent, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	rental, err := h.svc.GetRental(r.Context(), req.Renter, owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

func (h *ContractHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	rental, err := h.svc.GetRental(r.Context(), pathAddress(r, "renter"), pathAddress(r, "owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *ContractHandler) ReturnCar(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReturnCar(r.Context(), pathAddress(r, "renter"), pathAddress(r, "owner")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContractHandler) PayoutOwner(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	owner := pathAddress(r, "owner")
	if err := h.svc.PayoutOwner(r.Context(), owner, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	car, err := h.svc.GetCar(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(car.AvailableToWithdraw))
}

func (h *ContractHandler) GetAdminFee(w http.ResponseWriter, r *http.Request) {
	h.writeAmount(w, r, h.svc.GetAdminFee)
}

func (h *ContractHandler) SetAdminFee(w http.ResponseWriter, r *http.Request) {
	var req adminFeeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SetAdminFee(r.Context(), req.Admin, req.Fee); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(req.Fee))
}

func (h *ContractHandler) GetAdminAccumulatedFees(w http.ResponseWriter, r *http.Request) {
	h.writeAmount(w, r, h.svc.GetAdminAccumulatedFees)
}

func (h *ContractHandler) WithdrawAdminFees(w http.ResponseWriter, r *http.Request) {
	var req adminAmountRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.WithdrawAdminFees(r.Context(), req.Admin, req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeAmount(w, r, h.svc.GetAdminAccumulatedFees)
}

func (h *ContractHandler) GetContractBalance(w http.ResponseWriter, r *http.Request) {
	h.writeAmount(w, r, h.svc.GetContractBalance)
}

func (h *ContractHandler) Audit(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Audit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*service.AuditReport
		Balanced bool `json:"balanced"`
	}{report, report.Balanced()})
}

func (h *ContractHandler) writeAmount(w http.ResponseWriter, r *http.Request, read func(ctx context.Context) (domain.Amount, error)) {
	v, err := read(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAmountResponse(v))
}
