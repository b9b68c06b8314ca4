package usecase

import (
	"context"
	"strconv"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

// EventQueryUseCase serves the event catalog the enquiry form is built from.
type EventQueryUseCase struct {
	Events   entity.EventRepositoryInterface
	Packages entity.PackageRepositoryInterface
}

func NewEventQueryUseCase(events entity.EventRepositoryInterface, packages entity.PackageRepositoryInterface) *EventQueryUseCase {
	return &EventQueryUseCase{Events: events, Packages: packages}
}

// List returns events with their active packages. Active defaults to true;
// Featured is applied only when given.
func (uc *EventQueryUseCase) List(ctx context.Context, input ListEventsInput) ([]EventWithPackages, error) {
	var errs ValidationErrors
	filter := entity.EventFilter{Active: true}

	if input.Active != "" {
		active, err := strconv.ParseBool(input.Active)
		if err != nil {
			errs = append(errs, ValidationError{Field: "active", Message: "must be true or false"})
		}
		filter.Active = active
	}
	if input.Featured != "" {
		featured, err := strconv.ParseBool(input.Featured)
		if err != nil {
			errs = append(errs, ValidationError{Field: "featured", Message: "must be true or false"})
		}
		filter.Featured = &featured
	}
	if len(errs) > 0 {
		return nil, errs
	}

	events, err := uc.Events.List(ctx, filter)
	if err != nil {
		return nil, technical("EVENT_LIST_FAILED", "failed to list events", err)
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	packages, err := uc.Packages.ListActiveByEvents(ctx, ids)
	if err != nil {
		return nil, technical("PACKAGE_LIST_FAILED", "failed to list packages", err)
	}

	byEvent := make(map[string][]entity.Package, len(events))
	for _, p := range packages {
		byEvent[p.EventID] = append(byEvent[p.EventID], p)
	}

	out := make([]EventWithPackages, len(events))
	for i, e := range events {
		pkgs := byEvent[e.ID]
		if pkgs == nil {
			pkgs = []entity.Package{}
		}
		out[i] = EventWithPackages{Event: e, Packages: pkgs}
	}
	return out, nil
}

func (uc *EventQueryUseCase) Get(ctx context.Context, id string) (*EventDetailOutput, error) {
	event, err := findEvent(ctx, uc.Events, id)
	if err != nil {
		return nil, err
	}

	packages, err := uc.Packages.ListActiveByEvents(ctx, []string{id})
	if err != nil {
		return nil, technical("PACKAGE_LIST_FAILED", "failed to list packages", err)
	}
	return &EventDetailOutput{Event: event, Packages: packages}, nil
}
