package http

import (
	"net/http"

	"rentacar-ledger/internal/metrics"

	"github.com/gorilla/mux"
)

// NewRouter wires the contract routes. Route names key the security table
// in config. collector may be nil.
func NewRouter(h *ContractHandler, authMW *AuthMiddleware, collector *metrics.Collector, metricsPath string) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestLogger)
	if collector != nil {
		r.Use(collector.InstrumentHandler)
		r.Handle(metricsPath, collector.Handler()).Methods(http.MethodGet).Name("Metrics")
	}
	r.Use(authMW.Handler)

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("Health")

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/contract/initialize", h.Initialize).Methods(http.MethodPost).Name("Initialize")
	v1.HandleFunc("/contract/admin", h.GetAdmin).Methods(http.MethodGet).Name("GetAdmin")
	v1.HandleFunc("/contract/fee", h.GetAdminFee).Methods(http.MethodGet).Name("GetAdminFee")
	v1.HandleFunc("/contract/fee", h.SetAdminFee).Methods(http.MethodPut).Name("SetAdminFee")
	v1.HandleFunc("/contract/fees/accumulated", h.GetAdminAccumulatedFees).Methods(http.MethodGet).Name("GetAdminAccumulatedFees")
	v1.HandleFunc("/contract/fees/withdraw", h.WithdrawAdminFees).Methods(http.MethodPost).Name("WithdrawAdminFees")
	v1.HandleFunc("/contract/balance", h.GetContractBalance).Methods(http.MethodGet).Name("GetContractBalance")
	v1.HandleFunc("/contract/audit", h.Audit).Methods(http.MethodGet).Name("Audit")

	v1.HandleFunc("/cars", h.ListCars).Methods(http.MethodGet).Name("ListCars")
	v1.HandleFunc("/cars", h.AddCar).Methods(http.MethodPost).Name("AddCar")
	v1.HandleFunc("/cars/{owner}", h.GetCar).Methods(http.MethodGet).Name("GetCar")
	v1.HandleFunc("/cars/{owner}", h.RemoveCar).Methods(http.MethodDelete).Name("RemoveCar")
	v1.HandleFunc("/cars/{owner}/status", h.GetCarStatus).Methods(http.MethodGet).Name("GetCarStatus")
	v1.HandleFunc("/cars/{owner}/quote", h.QuoteRental).Methods(http.MethodGet).Name("QuoteRental")
	v1.HandleFunc("/cars/{owner}/payout", h.PayoutOwner).Methods(http.MethodPost).Name("PayoutOwner")
	v1.HandleFunc("/cars/{owner}/rentals", h.Rental).Methods(http.MethodPost).Name("Rental")
	v1.HandleFunc("/cars/{owner}/rentals/{renter}", h.GetRental).Methods(http.MethodGet).Name("GetRental")
	v1.HandleFunc("/cars/{owner}/rentals/{renter}/return", h.ReturnCar).Methods(http.MethodPost).Name("ReturnCar")

	return r
}
