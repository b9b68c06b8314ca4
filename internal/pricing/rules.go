package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SeasonRule is a surcharge bucket keyed by the month of the event.
type SeasonRule struct {
	Name    string
	Months  []time.Month
	Percent decimal.Decimal
}

// Rules is the adjustment table the engine applies. Bump Version whenever a
// percentage or threshold changes so persisted quotes can be traced back.
type Rules struct {
	Version string

	// Seasons are checked in order; the first bucket containing the month wins.
	Seasons []SeasonRule

	EarlyBirdMinDays int
	EarlyBirdPercent decimal.Decimal

	LastMinuteMaxDays int
	LastMinutePercent decimal.Decimal

	GroupMinTravelers int
	GroupPercent      decimal.Decimal

	WeekendPercent decimal.Decimal
}

// DefaultRules returns the rule set in production since launch.
func DefaultRules() Rules {
	return Rules{
		Version: "2024-01",
		Seasons: []SeasonRule{
			{Name: "High Season (Jun/Jul/Dec)", Months: []time.Month{time.June, time.July, time.December}, Percent: decimal.NewFromInt(20)},
			{Name: "Medium Season (Apr/May/Sep)", Months: []time.Month{time.April, time.May, time.September}, Percent: decimal.NewFromInt(10)},
		},
		EarlyBirdMinDays:  120,
		EarlyBirdPercent:  decimal.NewFromInt(-10),
		LastMinuteMaxDays: 15,
		LastMinutePercent: decimal.NewFromInt(25),
		GroupMinTravelers: 4,
		GroupPercent:      decimal.NewFromInt(-8),
		WeekendPercent:    decimal.NewFromInt(8),
	}
}

// Validate rejects tables that would flip the direction of a rule or make
// early-bird and last-minute overlap.
func (r Rules) Validate() error {
	if r.Version == "" {
		return fmt.Errorf("pricing rules: version is required")
	}
	for _, s := range r.Seasons {
		if s.Percent.IsNegative() {
			return fmt.Errorf("pricing rules: season %q must be a surcharge", s.Name)
		}
		for _, m := range s.Months {
			if m < time.January || m > time.December {
				return fmt.Errorf("pricing rules: season %q has invalid month %d", s.Name, m)
			}
		}
	}
	if r.EarlyBirdPercent.IsPositive() || r.GroupPercent.IsPositive() {
		return fmt.Errorf("pricing rules: early-bird and group must be discounts")
	}
	if r.LastMinutePercent.IsNegative() || r.WeekendPercent.IsNegative() {
		return fmt.Errorf("pricing rules: last-minute and weekend must be surcharges")
	}
	if r.LastMinuteMaxDays < 0 || r.EarlyBirdMinDays < r.LastMinuteMaxDays {
		return fmt.Errorf("pricing rules: early-bird threshold (%d) must not overlap last-minute window (%d)",
			r.EarlyBirdMinDays, r.LastMinuteMaxDays)
	}
	if r.GroupMinTravelers < 1 {
		return fmt.Errorf("pricing rules: group threshold must be at least 1")
	}
	return nil
}
