package models

import "time"

// Address is a structured delivery address. FullAddress is the derived
// display form and is what gets sent on orders.
type Address struct {
	Street      string `json:"street" validate:"required"`
	Landmark    string `json:"landmark"`
	City        string `json:"city" validate:"required"`
	FullAddress string `json:"fullAddress"`
}

// Derive recomputes FullAddress from the structured fields:
// "street (Near landmark), city", landmark omitted when empty.
func (a *Address) Derive() {
	full := a.Street
	if a.Landmark != "" {
		full += " (Near " + a.Landmark + ")"
	}
	a.FullAddress = full + ", " + a.City
}

// User is the authenticated account profile returned by the remote auth
// service and mirrored to the durable store. Orders, TotalSpent and
// LastOrder are running stats the client updates after each confirmed
// order.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email,omitempty"`
	Phone      string     `json:"phone,omitempty"`
	Address    *Address   `json:"address,omitempty"`
	Orders     int        `json:"orders"`
	TotalSpent float64    `json:"totalSpent"`
	LastOrder  *time.Time `json:"lastOrder,omitempty"`
}
