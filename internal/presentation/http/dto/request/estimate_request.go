package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConvertEstimateRequest sets the dates of the invoice created from an estimate
type ConvertEstimateRequest struct {
	IssueDate *Date `json:"issue_date"`
	DueDate   *Date `json:"due_date"`
}

// CreateEstimateRequest represents a request to create an estimate
type CreateEstimateRequest struct {
	ClientID     uuid.UUID         `json:"client_id" binding:"required"`
	IssueDate    *Date             `json:"issue_date" binding:"required"`
	ValidUntil   *Date             `json:"valid_until" binding:"required"`
	Items        []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	DiscountRate decimal.Decimal   `json:"discount_rate"`
	Notes        *string           `json:"notes"`
}

// UpdateEstimateRequest represents a partial estimate edit
type UpdateEstimateRequest struct {
	ClientID     *uuid.UUID        `json:"client_id"`
	IssueDate    *Date             `json:"issue_date"`
	ValidUntil   *Date             `json:"valid_until"`
	Items        []LineItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	DiscountRate *decimal.Decimal  `json:"discount_rate"`
	Notes        *string           `json:"notes"`
	Version      *int              `json:"version"`
}
