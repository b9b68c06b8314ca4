package usecase

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/pricing"
)

type CreateLeadInput struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Message       string `json:"message"`
	EventID       string `json:"event_id"`
	PackageID     string `json:"package_id"`
	Travelers     int    `json:"travelers"`
	PreferredDate string `json:"preferred_date"`
}

type UpdateLeadStatusInput struct {
	LeadID string `json:"-"`
	Status string `json:"status"`
	Note   string `json:"note"`
}

type ListLeadsInput struct {
	Status string
	Email  string
	Page   int
	Limit  int
}

type ListLeadsOutput struct {
	Leads []entity.Lead `json:"leads"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Pages int           `json:"pages"`
}

type LeadHistoryOutput struct {
	Lead    *entity.Lead                `json:"lead"`
	History []entity.StatusHistoryEntry `json:"history"`
}

type NextStatusesOutput struct {
	Current entity.LeadStatus   `json:"current"`
	Next    []entity.LeadStatus `json:"next"`
}

type GenerateQuoteInput struct {
	LeadID     string `json:"lead_id"`
	PackageID  string `json:"package_id"`
	Travelers  int    `json:"travelers"`
	TravelDate string `json:"travel_date"`
}

type GenerateQuoteOutput struct {
	Quote      *entity.Quote     `json:"quote"`
	Breakdown  pricing.Breakdown `json:"pricing_breakdown"`
	LeadStatus entity.LeadStatus `json:"lead_status"`
}

type PreviewQuoteInput struct {
	PackageID  string `json:"package_id"`
	Travelers  int    `json:"travelers"`
	TravelDate string `json:"travel_date"`
}

type PreviewQuoteOutput struct {
	Package   *entity.Package   `json:"package"`
	Breakdown pricing.Breakdown `json:"pricing_breakdown"`
}

type RespondQuoteInput struct {
	QuoteID  string `json:"-"`
	Response string `json:"response"`
}

type RespondQuoteOutput struct {
	Quote      *entity.Quote     `json:"quote"`
	LeadStatus entity.LeadStatus `json:"lead_status"`
}

type RequestVerificationInput struct {
	Email string `json:"email"`
}

type RequestVerificationOutput struct {
	Email           string `json:"email"`
	AlreadyVerified bool   `json:"already_verified"`
}

type ConfirmVerificationOutput struct {
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

// money is how quote notes and emails print prices.
func money(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}

type ListEventsInput struct {
	Active   string
	Featured string
}

// EventWithPackages is one entry of the event catalog.
type EventWithPackages struct {
	entity.Event
	Packages []entity.Package `json:"packages"`
}

type EventDetailOutput struct {
	Event    *entity.Event    `json:"event"`
	Packages []entity.Package `json:"packages"`
}
