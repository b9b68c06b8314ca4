package entity

import (
	"context"

	"github.com/shopspring/decimal"
)

// Package is a priced travel offering attached to an event. BasePrice is per
// traveler.
type Package struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Active    bool            `json:"active"`
}

type PackageRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Package, error)
	// ListActiveByEvents returns the active packages of the given events,
	// cheapest first.
	ListActiveByEvents(ctx context.Context, eventIDs []string) ([]Package, error)
}
