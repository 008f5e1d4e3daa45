package types

import (
	"strings"

	"github.com/google/uuid"
)

// Building locates the unit within a street address.
type Building struct {
	Number    string `json:"number" validate:"required"`
	Floor     string `json:"floor,omitempty"`
	Apartment string `json:"apartment,omitempty"`
}

// AddressInput is the delivery address as submitted by a client. The state,
// governorate and city are references resolved against the location store.
type AddressInput struct {
	StateID       uuid.UUID `json:"state" validate:"required"`
	GovernorateID uuid.UUID `json:"governorate" validate:"required"`
	CityID        uuid.UUID `json:"city" validate:"required"`
	Street        string    `json:"street" validate:"required"`
	Building      Building  `json:"building" validate:"required"`
	Notes         string    `json:"notes,omitempty"`
}

// DeliveryAddress is the copied-value snapshot stored on an order.
type DeliveryAddress struct {
	StateID         uuid.UUID `json:"stateId"`
	StateName       string    `json:"stateName"`
	GovernorateID   uuid.UUID `json:"governorateId"`
	GovernorateName string    `json:"governorateName"`
	CityID          uuid.UUID `json:"cityId"`
	CityName        string    `json:"cityName"`
	Street          string    `json:"street"`
	Building        Building  `json:"building"`
	Notes           string    `json:"notes,omitempty"`
}

// Summary renders the address as "city, governorate, state".
func (a DeliveryAddress) Summary() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.CityName, a.GovernorateName, a.StateName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
