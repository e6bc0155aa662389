package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCreateAccount(t *testing.T) {
	account := CreateAccount{
		ID:   "acc_1",
		Name: "Everyday Checking",
		Type: "Checking",
	}
	assert.NoError(t, account.ValidateCreateAccount())

	account.Type = "Mattress"
	assert.Error(t, account.ValidateCreateAccount())

	account.Type = "Checking"
	account.ID = ""
	assert.Error(t, account.ValidateCreateAccount())
}

func TestValidateCreateAccount_OptionalEnums(t *testing.T) {
	account := CreateAccount{
		ID:            "acc_1",
		Name:          "Coin Jar",
		Type:          "Cash",
		StashType:     "Crypto Wallet",
		GoalFrequency: "weekly",
	}
	assert.NoError(t, account.ValidateCreateAccount())

	account.GoalFrequency = "hourly"
	assert.Error(t, account.ValidateCreateAccount())
}

func TestValidatePatchAccount(t *testing.T) {
	name := "Holiday Fund"
	assert.NoError(t, (&PatchAccount{Name: &name}).ValidatePatchAccount())

	bad := "Mattress"
	assert.Error(t, (&PatchAccount{Type: &bad}).ValidatePatchAccount())
}

func TestValidateRecordTransaction_Deposit(t *testing.T) {
	txn := RecordTransaction{
		ID:        "txn_1",
		Type:      "deposit",
		Amount:    decimal.RequireFromString("25.50"),
		AccountID: "acc_1",
	}
	assert.NoError(t, txn.ValidateRecordTransaction())

	txn.AccountID = ""
	assert.Error(t, txn.ValidateRecordTransaction())

	txn.AccountID = "acc_1"
	txn.FromAccountID = "acc_2"
	assert.Error(t, txn.ValidateRecordTransaction())
}

func TestValidateRecordTransaction_Transfer(t *testing.T) {
	txn := RecordTransaction{
		ID:            "txn_1",
		Type:          "transfer",
		Amount:        decimal.RequireFromString("30.00"),
		FromAccountID: "acc_1",
		ToAccountID:   "acc_2",
	}
	assert.NoError(t, txn.ValidateRecordTransaction())

	txn.ToAccountID = "acc_1"
	assert.Error(t, txn.ValidateRecordTransaction())

	txn.ToAccountID = ""
	assert.Error(t, txn.ValidateRecordTransaction())
}

func TestValidateRecordTransaction_UnknownType(t *testing.T) {
	txn := RecordTransaction{
		ID:        "txn_1",
		Type:      "loan",
		Amount:    decimal.RequireFromString("5.00"),
		AccountID: "acc_1",
	}
	assert.Error(t, txn.ValidateRecordTransaction())
}

func TestToTransaction_CarriesUser(t *testing.T) {
	txn := RecordTransaction{
		ID:        "txn_1",
		Type:      "deposit",
		Amount:    decimal.RequireFromString("25.50"),
		AccountID: "acc_1",
	}
	converted := txn.ToTransaction("usr_1")
	assert.Equal(t, "usr_1", converted.UserID)
	assert.Equal(t, "txn_1", converted.TransactionID)
	assert.True(t, converted.Date.IsZero())
}

func TestValidateCreateUser(t *testing.T) {
	user := CreateUser{FirstName: "Ada", Email: "ada@example.com"}
	assert.NoError(t, user.ValidateCreateUser())

	user.Email = ""
	assert.Error(t, user.ValidateCreateUser())
}
