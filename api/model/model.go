/*
Copyright 2025 Stashbook Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/stashbook-finance/stashbook/model"
)

// CreateAccount is the request body for opening a new account. The id is
// assigned by the caller, so retries are idempotent from the client's side.
type CreateAccount struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Type          string                 `json:"type"`
	Balance       decimal.Decimal        `json:"balance"`
	StashType     string                 `json:"stash_type"`
	GoalAmount    *decimal.Decimal       `json:"goal_amount"`
	GoalDate      *time.Time             `json:"goal_date"`
	GoalFrequency string                 `json:"goal_frequency"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.ID, validation.Required),
		validation.Field(&a.Name, validation.Required),
		validation.Field(&a.Type, validation.Required, validation.In(toInterfaces(model.AccountTypes)...)),
		validation.Field(&a.StashType, validation.In(toInterfaces(model.StashTypes)...)),
		validation.Field(&a.GoalFrequency, validation.In(toInterfaces(model.GoalFrequencies)...)),
	)
}

func (a *CreateAccount) ToAccount(userID string) model.Account {
	return model.Account{
		AccountID:     a.ID,
		Name:          a.Name,
		AccountType:   a.Type,
		Balance:       a.Balance,
		StashType:     a.StashType,
		GoalAmount:    a.GoalAmount,
		GoalDate:      a.GoalDate,
		GoalFrequency: a.GoalFrequency,
		UserID:        userID,
		MetaData:      a.MetaData,
	}
}

// PatchAccount is a sparse account update; absent fields are left untouched.
// Balance is not patchable, it only moves through transactions.
type PatchAccount struct {
	Name          *string                `json:"name"`
	Type          *string                `json:"type"`
	StashType     *string                `json:"stash_type"`
	GoalAmount    *decimal.Decimal       `json:"goal_amount"`
	GoalDate      *time.Time             `json:"goal_date"`
	GoalFrequency *string                `json:"goal_frequency"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

func (a *PatchAccount) ValidatePatchAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Type, validation.By(optionalIn(a.Type, model.AccountTypes, "type"))),
		validation.Field(&a.StashType, validation.By(optionalIn(a.StashType, model.StashTypes, "stash_type"))),
		validation.Field(&a.GoalFrequency, validation.By(optionalIn(a.GoalFrequency, model.GoalFrequencies, "goal_frequency"))),
	)
}

func (a *PatchAccount) ToPatch() model.AccountPatch {
	return model.AccountPatch{
		Name:          a.Name,
		AccountType:   a.Type,
		StashType:     a.StashType,
		GoalAmount:    a.GoalAmount,
		GoalDate:      a.GoalDate,
		GoalFrequency: a.GoalFrequency,
		MetaData:      a.MetaData,
	}
}

// CloseAccount carries the optional reason recorded when closing an account.
type CloseAccount struct {
	Reason string `json:"reason"`
}

// RecordTransaction is the request body for posting a deposit, withdrawal or
// transfer.
type RecordTransaction struct {
	ID            string                 `json:"id"`
	Date          *time.Time             `json:"date"`
	Type          string                 `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	Description   string                 `json:"description"`
	AccountID     string                 `json:"account_id"`
	FromAccountID string                 `json:"from_account_id"`
	ToAccountID   string                 `json:"to_account_id"`
	MetaData      map[string]interface{} `json:"meta_data"`
}

func endpointsForTypeValidation(t *RecordTransaction) validation.RuleFunc {
	return func(value interface{}) error {
		switch t.Type {
		case model.TypeDeposit, model.TypeWithdrawal:
			if t.AccountID == "" {
				return errors.New("account_id is required for deposit and withdrawal transactions")
			}
			if t.FromAccountID != "" || t.ToAccountID != "" {
				return errors.New("from_account_id and to_account_id are only valid for transfers")
			}
		case model.TypeTransfer:
			if t.AccountID != "" {
				return errors.New("account_id is only valid for deposits and withdrawals")
			}
			if t.FromAccountID == "" || t.ToAccountID == "" {
				return errors.New("from_account_id and to_account_id are required for transfer transactions")
			}
			if t.FromAccountID == t.ToAccountID {
				return errors.New("from_account_id and to_account_id must be distinct")
			}
		}
		return nil
	}
}

func (t *RecordTransaction) ValidateRecordTransaction() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Amount, validation.Required),
		validation.Field(&t.Type, validation.Required, validation.In(model.TypeDeposit, model.TypeWithdrawal, model.TypeTransfer)),
		validation.Field(&t.AccountID, validation.By(endpointsForTypeValidation(t))),
	)
}

func (t *RecordTransaction) ToTransaction(userID string) model.Transaction {
	txn := model.Transaction{
		TransactionID: t.ID,
		Type:          t.Type,
		Amount:        t.Amount,
		Description:   t.Description,
		AccountID:     t.AccountID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		UserID:        userID,
		MetaData:      t.MetaData,
	}
	if t.Date != nil {
		txn.Date = *t.Date
	}
	return txn
}

// CreateUser is the request body for registering a user.
type CreateUser struct {
	ID        string                 `json:"id"`
	FirstName string                 `json:"first_name"`
	LastName  string                 `json:"last_name"`
	Email     string                 `json:"email"`
	MetaData  map[string]interface{} `json:"meta_data"`
}

func (u *CreateUser) ValidateCreateUser() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.FirstName, validation.Required),
		validation.Field(&u.Email, validation.Required),
	)
}

func (u *CreateUser) ToUser() model.User {
	return model.User{
		UserID:    u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		MetaData:  u.MetaData,
	}
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// optionalIn validates a nillable enum field: nil passes, a set value must be
// one of the allowed options.
func optionalIn(value *string, allowed []string, field string) validation.RuleFunc {
	return func(interface{}) error {
		if value == nil {
			return nil
		}
		for _, v := range allowed {
			if *value == v {
				return nil
			}
		}
		return errors.New(field + " must be one of the supported values")
	}
}
