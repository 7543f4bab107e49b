package request

import (
	"github.com/sangkips/quickbill-api/internal/domain/entity"
)

// ClientRequest represents a client create or replace request
type ClientRequest struct {
	Name    string         `json:"name" binding:"required,max=255"`
	Email   string         `json:"email" binding:"required,email"`
	Phone   *string        `json:"phone" binding:"omitempty,max=50"`
	Address AddressRequest `json:"address"`
}

// AddressRequest is a postal address
type AddressRequest struct {
	Street  string `json:"street" binding:"max=255"`
	City    string `json:"city" binding:"max=100"`
	State   string `json:"state" binding:"max=100"`
	ZipCode string `json:"zip_code" binding:"max=20"`
	Country string `json:"country" binding:"max=100"`
}

// ToEntity converts the request into a domain address
func (a AddressRequest) ToEntity() entity.Address {
	return entity.Address{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
}
