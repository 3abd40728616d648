package models

// Request DTOs for the market API endpoints.

type RankedRequest struct {
	Limit int `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}
