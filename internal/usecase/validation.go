package usecase

import (
	"strings"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/pointledger/internal/domain/errors"
	"github.com/polkiloo/pointledger/internal/domain/model"
)

const (
	minAccountDigits = 6
	maxAccountDigits = 20
	maxTextField     = 128
)

// ValidateSubmission checks a withdrawal before any balance is touched.
func ValidateSubmission(amount int64, bank model.BankDetails, idempotencyKey string) error {
	if amount <= 0 {
		return domainErrors.NewValidationError("amount", "must be positive")
	}
	if err := validateText("bankName", bank.BankName); err != nil {
		return err
	}
	if err := validateText("accountHolder", bank.AccountHolder); err != nil {
		return err
	}
	if !ValidateAccountNumber(bank.AccountNumber) {
		return domainErrors.NewValidationError("accountNumber", "must be 6 to 20 digits")
	}
	if idempotencyKey != "" {
		if _, err := uuid.Parse(idempotencyKey); err != nil {
			return domainErrors.NewValidationError("idempotencyKey", "must be a UUID")
		}
	}
	return nil
}

// ValidateAccountNumber accepts digit-only account numbers of allowed length.
func ValidateAccountNumber(number string) bool {
	if len(number) < minAccountDigits || len(number) > maxAccountDigits {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validateText(field, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return domainErrors.NewValidationError(field, "must not be empty")
	}
	if len(value) > maxTextField {
		return domainErrors.NewValidationError(field, "is too long")
	}
	return nil
}
