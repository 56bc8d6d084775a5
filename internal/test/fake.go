package test

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/polkiloo/pointledger/internal/domain/model"
)

// FakeBankDetails returns random bank details that pass validation.
func FakeBankDetails() model.BankDetails {
	return model.BankDetails{
		BankName:      gofakeit.Company(),
		AccountNumber: gofakeit.AchAccount(),
		AccountHolder: gofakeit.Name(),
	}
}
