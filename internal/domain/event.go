package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventName string

const (
	EventContractInitialized EventName = "contract_initialized"
	EventCarAdded            EventName = "car_added"
	EventCarRemoved          EventName = "car_removed"
	EventRented              EventName = "rented"
	EventCarReturned         EventName = "car_returned"
	EventPayoutOwner         EventName = "payout_owner"
	EventAdminFeeSet         EventName = "admin_fee_set"
	EventAdminFeesWithdrawn  EventName = "admin_fees_withdrawn"
)

type Event struct {
	ID         string            `json:"id"`
	Name       EventName         `json:"name"`
	Fields     map[string]string `json:"fields"`
	OccurredAt time.Time         `json:"occurred_at"`
}

func NewEvent(name EventName, fields map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Fields:     fields,
		OccurredAt: time.Now().UTC(),
	}
}
