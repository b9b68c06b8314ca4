package pricing

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const (
	reasonNotApplicable = "Not applicable"
	reasonRegularSeason = "Regular Season"
)

var (
	ErrInvalidTravelers = errors.New("travelers must be at least 1")
	ErrNegativePrice    = errors.New("unit price cannot be negative")
)

var hundred = decimal.NewFromInt(100)

// Adjustment is one line of the breakdown. Percentage is the nominal rule
// percentage, never derived back from Amount.
type Adjustment struct {
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
	Reason     string          `json:"reason"`
}

type Adjustments struct {
	Seasonal   Adjustment `json:"seasonal"`
	EarlyBird  Adjustment `json:"early_bird"`
	LastMinute Adjustment `json:"last_minute"`
	Group      Adjustment `json:"group"`
	Weekend    Adjustment `json:"weekend"`
}

// Sum adds the five amounts as stored in the breakdown.
func (a Adjustments) Sum() decimal.Decimal {
	return decimal.Sum(a.Seasonal.Amount, a.EarlyBird.Amount, a.LastMinute.Amount, a.Group.Amount, a.Weekend.Amount)
}

type Breakdown struct {
	PricePerPerson   decimal.Decimal `json:"price_per_person"`
	Travelers        int             `json:"travelers"`
	BaseTotal        decimal.Decimal `json:"base_total"`
	Adjustments      Adjustments     `json:"adjustments"`
	TotalAdjustments decimal.Decimal `json:"total_adjustments"`
	FinalPrice       decimal.Decimal `json:"final_price"`
	DaysUntilEvent   int             `json:"days_until_event"`
	RulesVersion     string          `json:"rules_version"`
}

type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Compute prices a package for a number of travelers on eventDate as seen from
// asOf. It has no side effects: the same inputs always give the same breakdown.
func (e *Engine) Compute(unitPrice decimal.Decimal, travelers int, eventDate, asOf time.Time) (Breakdown, error) {
	if travelers < 1 {
		return Breakdown{}, ErrInvalidTravelers
	}
	if unitPrice.IsNegative() {
		return Breakdown{}, ErrNegativePrice
	}

	baseTotal := unitPrice.Mul(decimal.NewFromInt(int64(travelers)))
	days := DaysBetween(asOf, eventDate)

	seasonal := e.seasonal(eventDate, baseTotal)
	earlyBird := e.earlyBird(days, baseTotal)
	lastMinute := e.lastMinute(days, baseTotal)
	group := e.group(travelers, baseTotal)
	weekend := e.weekend(eventDate, baseTotal)

	total := decimal.Sum(seasonal.Amount, earlyBird.Amount, lastMinute.Amount, group.Amount, weekend.Amount)
	final := baseTotal.Add(total)

	return Breakdown{
		PricePerPerson: unitPrice.Round(2),
		Travelers:      travelers,
		BaseTotal:      baseTotal.Round(2),
		Adjustments: Adjustments{
			Seasonal:   seasonal.rounded(),
			EarlyBird:  earlyBird.rounded(),
			LastMinute: lastMinute.rounded(),
			Group:      group.rounded(),
			Weekend:    weekend.rounded(),
		},
		TotalAdjustments: total.Round(2),
		FinalPrice:       final.Round(2),
		DaysUntilEvent:   days,
		RulesVersion:     e.rules.Version,
	}, nil
}

// DaysBetween counts the full 24-hour periods from `from` to `to`. A partial
// day is dropped, truncating toward zero, so the result is negative only once
// `to` is at least a day in the past.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

func (e *Engine) seasonal(eventDate time.Time, base decimal.Decimal) Adjustment {
	month := eventDate.UTC().Month()
	for _, s := range e.rules.Seasons {
		if slices.Contains(s.Months, month) {
			return applied(base, s.Percent, s.Name)
		}
	}
	return Adjustment{Amount: decimal.Zero, Percentage: decimal.Zero, Reason: reasonRegularSeason}
}

func (e *Engine) earlyBird(days int, base decimal.Decimal) Adjustment {
	if days >= e.rules.EarlyBirdMinDays {
		return applied(base, e.rules.EarlyBirdPercent, fmt.Sprintf("Early Bird (%d days ahead)", days))
	}
	return notApplicable()
}

func (e *Engine) lastMinute(days int, base decimal.Decimal) Adjustment {
	if days >= 0 && days < e.rules.LastMinuteMaxDays {
		return applied(base, e.rules.LastMinutePercent, fmt.Sprintf("Last Minute (%d days left)", days))
	}
	return notApplicable()
}

func (e *Engine) group(travelers int, base decimal.Decimal) Adjustment {
	if travelers >= e.rules.GroupMinTravelers {
		return applied(base, e.rules.GroupPercent, fmt.Sprintf("Group Discount (%d travellers)", travelers))
	}
	return notApplicable()
}

func (e *Engine) weekend(eventDate time.Time, base decimal.Decimal) Adjustment {
	switch eventDate.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return applied(base, e.rules.WeekendPercent, "Weekend Event")
	}
	return notApplicable()
}

func applied(base, percent decimal.Decimal, reason string) Adjustment {
	return Adjustment{
		Amount:     base.Mul(percent).Div(hundred),
		Percentage: percent,
		Reason:     reason,
	}
}

func notApplicable() Adjustment {
	return Adjustment{Amount: decimal.Zero, Percentage: decimal.Zero, Reason: reasonNotApplicable}
}

func (a Adjustment) rounded() Adjustment {
	a.Amount = a.Amount.Round(2)
	return a
}
