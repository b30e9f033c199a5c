package domain

// Rental is keyed by (renter, owner). Amount is the owner's net deposit; the
// admin fee is not part of it.
type Rental struct {
	TotalDaysToRent uint32 `json:"total_days_to_rent"`
	Amount          Amount `json:"amount"`
}
