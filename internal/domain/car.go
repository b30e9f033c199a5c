package domain

import (
	"fmt"
	"strings"
)

type CarStatus uint32

const (
	CarStatusAvailable CarStatus = iota
	CarStatusRented
	CarStatusMaintenance
)

func (s CarStatus) String() string {
	switch s {
	case CarStatusAvailable:
		return "AVAILABLE"
	case CarStatusRented:
		return "RENTED"
	case CarStatusMaintenance:
		return "MAINTENANCE"
	}
	return fmt.Sprintf("CarStatus(%d)", uint32(s))
}

func (s CarStatus) MarshalText() ([]byte, error) {
	switch s {
	case CarStatusAvailable, CarStatusRented, CarStatusMaintenance:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("unknown car status %d", uint32(s))
}

func (s *CarStatus) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "AVAILABLE":
		*s = CarStatusAvailable
	case "RENTED":
		*s = CarStatusRented
	case "MAINTENANCE":
		*s = CarStatusMaintenance
	default:
		return fmt.Errorf("unknown car status %q", text)
	}
	return nil
}

// Car is keyed by its owner; an owner lists at most one car.
type Car struct {
	PricePerDay         Amount    `json:"price_per_day"`
	Status              CarStatus `json:"car_status"`
	AvailableToWithdraw Amount    `json:"available_to_withdraw"`
}

func NewCar(pricePerDay Amount) *Car {
	return &Car{PricePerDay: pricePerDay, Status: CarStatusAvailable}
}

func (c *Car) IsAvailable() bool { return c.Status == CarStatusAvailable }

// CarListing pairs a car with the owner it is stored under.
type CarListing struct {
	Owner Address `json:"owner"`
	Car
}
