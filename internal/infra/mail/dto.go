package mail

type QuoteEmailData struct {
	Name           string
	PackageName    string
	EventName      string
	EventLocation  string
	EventDate      string
	Travelers      int
	PricePerPerson string
	BaseTotal      string
	Lines          []AdjustmentLine
	FinalPrice     string
	ValidUntil     string
	AcceptURL      string
	DeclineURL     string
}

// AdjustmentLine is one applied price adjustment. Lines that did not apply are
// left out of the email.
type AdjustmentLine struct {
	Reason     string
	Percentage string
	Amount     string
}

type VerificationEmailData struct {
	Link      string
	ExpiresAt string
}
