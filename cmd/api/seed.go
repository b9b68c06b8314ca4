package main

import (
	"log"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"

	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/memstore"
)

// seedDemoCatalog fills the in-memory catalog with a few events relative to
// today so every pricing rule can be tried locally.
func seedDemoCatalog(catalog *memstore.CatalogRepository, today time.Time) {
	day := now.With(today.UTC()).BeginningOfDay()

	events := []entity.Event{
		{ID: "evt-cup-final", Name: "Cup Final", Location: "London", StartDate: day.AddDate(0, 6, 0), Featured: true},
		{ID: "evt-derby", Name: "City Derby", Location: "Manchester", StartDate: day.AddDate(0, 0, 10)},
		{ID: "evt-test-match", Name: "Test Match, Day 1", Location: "Mumbai", StartDate: day.AddDate(0, 2, 0)},
	}
	for _, e := range events {
		e.EndDate = e.StartDate
		e.Active = true
		catalog.AddEvent(e)
	}

	packages := []entity.Package{
		{ID: "pkg-cup-final-gold", EventID: "evt-cup-final", Name: "Gold Hospitality", BasePrice: decimal.NewFromInt(100000), Active: true},
		{ID: "pkg-cup-final-std", EventID: "evt-cup-final", Name: "Standard Travel", BasePrice: decimal.NewFromInt(45000), Active: true},
		{ID: "pkg-derby-std", EventID: "evt-derby", Name: "Match Weekend", BasePrice: decimal.NewFromInt(60000), Active: true},
		{ID: "pkg-test-match-std", EventID: "evt-test-match", Name: "Stands and Stay", BasePrice: decimal.NewFromInt(30000), Active: true},
		{ID: "pkg-test-match-old", EventID: "evt-test-match", Name: "Early Release", BasePrice: decimal.NewFromInt(25000), Active: false},
	}
	for _, p := range packages {
		catalog.AddPackage(p)
	}

	log.Printf("🌱 Demo catalog seeded: %d events, %d packages", len(events), len(packages))
}
