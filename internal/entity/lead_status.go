package entity

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// LeadStatus is the lifecycle state of a lead. The set is closed: values
// outside [StatusNew, StatusLost] are never produced by Parse or Scan.
type LeadStatus uint8

const (
	StatusNew LeadStatus = iota
	StatusContacted
	StatusQuoteSent
	StatusQualified
	StatusConverted
	StatusLost

	statusCount
)

var statusNames = [statusCount]string{
	StatusNew:       "NEW",
	StatusContacted: "CONTACTED",
	StatusQuoteSent: "QUOTE_SENT",
	StatusQualified: "QUALIFIED",
	StatusConverted: "CONVERTED",
	StatusLost:      "LOST",
}

// transitions is indexed by the current status. Adding a status without a row
// here fails to compile because of the fixed array length.
var transitions = [statusCount][]LeadStatus{
	StatusNew:       {StatusContacted, StatusLost},
	StatusContacted: {StatusQuoteSent, StatusLost},
	StatusQuoteSent: {StatusQualified, StatusConverted, StatusLost},
	StatusQualified: {StatusConverted, StatusLost},
	StatusConverted: {},
	StatusLost:      {},
}

func (s LeadStatus) Valid() bool {
	return s < statusCount
}

func (s LeadStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("LeadStatus(%d)", uint8(s))
	}
	return statusNames[s]
}

// Terminal reports whether no further transition is possible.
func (s LeadStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// Active is true while the lead can still be worked on.
func (s LeadStatus) Active() bool {
	return s.Valid() && !s.Terminal()
}

func ParseLeadStatus(v string) (LeadStatus, error) {
	key := strings.ToUpper(strings.TrimSpace(v))
	key = strings.ReplaceAll(key, " ", "_")
	for i, name := range statusNames {
		if name == key {
			return LeadStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, v)
}

func (s LeadStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *LeadStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseLeadStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s LeadStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStatus, uint8(s))
	}
	return s.String(), nil
}

func (s *LeadStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("scan lead status: unsupported type %T", src)
	}
}

// AllStatuses lists every status in lifecycle order.
func AllStatuses() []LeadStatus {
	out := make([]LeadStatus, 0, statusCount)
	for s := StatusNew; s < statusCount; s++ {
		out = append(out, s)
	}
	return out
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s LeadStatus) []LeadStatus {
	if !s.Valid() {
		return nil
	}
	out := make([]LeadStatus, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

func CanTransition(from, to LeadStatus) bool {
	return ValidateTransition(from, to) == nil
}

// TransitionError explains why a status change was refused.
type TransitionError struct {
	From    LeadStatus
	To      LeadStatus
	Allowed []LeadStatus
	Reason  string
}

func (e *TransitionError) Error() string {
	return e.Reason
}

// ValidateTransition checks a proposed status change against the lifecycle.
func ValidateTransition(current, proposed LeadStatus) error {
	if !current.Valid() || !proposed.Valid() {
		return &TransitionError{
			From:   current,
			To:     proposed,
			Reason: fmt.Sprintf("unknown status in transition %s -> %s", current, proposed),
		}
	}

	allowed := NextStatuses(current)
	if current == proposed {
		return &TransitionError{From: current, To: proposed, Allowed: allowed, Reason: "lead is already in this status"}
	}

	for _, s := range allowed {
		if s == proposed {
			return nil
		}
	}

	return &TransitionError{
		From:    current,
		To:      proposed,
		Allowed: allowed,
		Reason: fmt.Sprintf("invalid status transition from %q to %q; allowed transitions: %s",
			current, proposed, joinStatuses(allowed)),
	}
}

func joinStatuses(list []LeadStatus) string {
	if len(list) == 0 {
		return "none (terminal status)"
	}
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}
