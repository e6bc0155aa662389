package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive = "active"
	StatusClosed = "closed"
)

// Account types mirror the categories a stash can be reported as.
var AccountTypes = []string{"Checking", "Savings", "Credit Card", "Cash", "Investment", "Other"}

// Stash types classify where the money physically lives, independent of the
// account type above.
var StashTypes = []string{"Cash", "Bank", "Crypto Wallet", "Investment"}

var GoalFrequencies = []string{"daily", "weekly", "monthly"}

var (
	ErrAccountAlreadyClosed = errors.New("account is already closed")
	ErrAccountAlreadyActive = errors.New("account is already active")
)

type Account struct {
	ID            int64                  `json:"-"`
	AccountID     string                 `json:"id"`
	Name          string                 `json:"name"`
	AccountType   string                 `json:"type"`
	Balance       decimal.Decimal        `json:"balance"`
	Status        string                 `json:"status"`
	ClosedReason  string                 `json:"closed_reason,omitempty"`
	StashType     string                 `json:"stash_type"`
	GoalAmount    *decimal.Decimal       `json:"goal_amount,omitempty"`
	GoalDate      *time.Time             `json:"goal_date,omitempty"`
	GoalFrequency string                 `json:"goal_frequency,omitempty"`
	LastTxDate    *time.Time             `json:"last_tx_date,omitempty"`
	UserID        string                 `json:"user_id"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

// AccountPatch carries a sparse update. Nil fields are left untouched by
// Apply; balance is deliberately absent since it is owned by the ledger.
type AccountPatch struct {
	Name          *string
	AccountType   *string
	StashType     *string
	GoalAmount    *decimal.Decimal
	GoalDate      *time.Time
	GoalFrequency *string
	MetaData      map[string]interface{}
}

// Apply merges the patch into the account, field by field.
func (account *Account) Apply(patch AccountPatch) {
	if patch.Name != nil {
		account.Name = *patch.Name
	}
	if patch.AccountType != nil {
		account.AccountType = *patch.AccountType
	}
	if patch.StashType != nil {
		account.StashType = *patch.StashType
	}
	if patch.GoalAmount != nil {
		account.GoalAmount = patch.GoalAmount
	}
	if patch.GoalDate != nil {
		account.GoalDate = patch.GoalDate
	}
	if patch.GoalFrequency != nil {
		account.GoalFrequency = *patch.GoalFrequency
	}
	if patch.MetaData != nil {
		account.MetaData = patch.MetaData
	}
}

// Close transitions the account to closed. The balance is untouched; a closed
// account keeps its transaction history.
func (account *Account) Close(reason string) error {
	if account.Status == StatusClosed {
		return ErrAccountAlreadyClosed
	}
	account.Status = StatusClosed
	account.ClosedReason = reason
	return nil
}

// Restore transitions a closed account back to active and clears the reason.
func (account *Account) Restore() error {
	if account.Status == StatusActive {
		return ErrAccountAlreadyActive
	}
	account.Status = StatusActive
	account.ClosedReason = ""
	return nil
}

// IsClosed reports whether the account is in the closed state.
func (account *Account) IsClosed() bool {
	return account.Status == StatusClosed
}

// credit adds amount to the balance. An absent balance behaves as zero, which
// the decimal zero value already guarantees.
func (account *Account) credit(amount decimal.Decimal) {
	account.Balance = account.Balance.Add(amount)
}

// debit subtracts amount from the balance.
func (account *Account) debit(amount decimal.Decimal) {
	account.Balance = account.Balance.Sub(amount)
}

func (account *Account) touch(date time.Time) {
	d := date
	account.LastTxDate = &d
}
