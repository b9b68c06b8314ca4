package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var nonDigits = regexp.MustCompile(`\D`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateCreateLeadInput(input CreateLeadInput) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if !isValidEmail(input.Email) {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(input.Phone) == "" {
		errors = append(errors, ValidationError{"phone", "is required"})
	} else if !isValidPhoneNumber(input.Phone) {
		errors = append(errors, ValidationError{"phone", "must be a valid phone number"})
	}

	if input.Travelers < 0 {
		errors = append(errors, ValidationError{"travelers", "must be at least 1"})
	}

	if input.PreferredDate != "" {
		if _, err := parseDate(input.PreferredDate); err != nil {
			errors = append(errors, ValidationError{"preferred_date", "must be a valid date (YYYY-MM-DD)"})
		}
	}

	if len(input.Message) > 2000 {
		errors = append(errors, ValidationError{"message", "must not exceed 2000 characters"})
	}

	return errors
}

func ValidateGenerateQuoteInput(input GenerateQuoteInput) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(input.LeadID) == "" {
		errors = append(errors, ValidationError{"lead_id", "is required"})
	}
	errors = append(errors, validatePricingInput(input.PackageID, input.Travelers, input.TravelDate)...)

	return errors
}

func ValidatePreviewQuoteInput(input PreviewQuoteInput) ValidationErrors {
	return validatePricingInput(input.PackageID, input.Travelers, input.TravelDate)
}

func validatePricingInput(packageID string, travelers int, travelDate string) ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(packageID) == "" {
		errors = append(errors, ValidationError{"package_id", "is required"})
	}
	if travelers < 1 {
		errors = append(errors, ValidationError{"travelers", "must be at least 1"})
	}
	if strings.TrimSpace(travelDate) == "" {
		errors = append(errors, ValidationError{"travel_date", "is required"})
	} else if _, err := parseDate(travelDate); err != nil {
		errors = append(errors, ValidationError{"travel_date", "must be a valid date (YYYY-MM-DD)"})
	}

	return errors
}

func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return false
	}
	// Reject "Name <addr>" forms; the field must be a bare address.
	return addr.Address == strings.TrimSpace(email) && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".")
}

func isValidPhoneNumber(phone string) bool {
	cleaned := nonDigits.ReplaceAllString(phone, "")
	return len(cleaned) >= 7 && len(cleaned) <= 15
}

// parseDate accepts a plain calendar date or an RFC 3339 timestamp and
// returns it in UTC.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
