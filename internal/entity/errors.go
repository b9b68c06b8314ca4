package entity

import "errors"

var (
	ErrLeadNotFound          = errors.New("lead not found")
	ErrQuoteNotFound         = errors.New("quote not found")
	ErrPackageNotFound       = errors.New("package not found")
	ErrEventNotFound         = errors.New("event not found")
	ErrVerificationNotFound  = errors.New("email verification not found")
	ErrUnknownStatus         = errors.New("unknown lead status")
	ErrStatusChanged         = errors.New("lead status changed concurrently")
	ErrQuoteAlreadyResponded = errors.New("quote already responded")
)
