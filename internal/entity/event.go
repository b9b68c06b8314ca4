package entity

import (
	"context"
	"time"
)

type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Featured  bool      `json:"featured"`
	Active    bool      `json:"active"`
}

// EventFilter selects events by their Active flag and, when Featured is set,
// by their Featured flag.
type EventFilter struct {
	Active   bool
	Featured *bool
}

type EventRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Event, error)
	// List returns matching events, featured first, then by start date.
	List(ctx context.Context, filter EventFilter) ([]Event, error)
}
