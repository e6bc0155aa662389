package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
	TypeTransfer   = "transfer"
)

var (
	ErrAccountIDRequired  = errors.New("account_id is required for deposit and withdrawal transactions")
	ErrEndpointsRequired  = errors.New("from_account_id and to_account_id are required for transfer transactions")
	ErrEndpointsIdentical = errors.New("from_account_id and to_account_id must be distinct")
	ErrUnknownType        = errors.New("transaction type must be deposit, withdrawal or transfer")
	ErrNegativeAmount     = errors.New("transaction amount must not be negative")
)

type Transaction struct {
	ID            int64                  `json:"-"`
	TransactionID string                 `json:"id"`
	Date          time.Time              `json:"date"`
	Type          string                 `json:"type"`
	Amount        decimal.Decimal        `json:"amount"`
	Description   string                 `json:"description"`
	AccountID     string                 `json:"account_id,omitempty"`
	FromAccountID string                 `json:"from_account_id,omitempty"`
	ToAccountID   string                 `json:"to_account_id,omitempty"`
	UserID        string                 `json:"user_id"`
	CreatedAt     time.Time              `json:"created_at"`
	MetaData      map[string]interface{} `json:"meta_data,omitempty"`
}

func (transaction *Transaction) ToJSON() ([]byte, error) {
	return json.Marshal(transaction)
}

// Validate checks the transaction's account references are consistent with its
// declared type. It does not check that the referenced accounts exist or are
// active; that is the caller's job.
func (transaction *Transaction) Validate() error {
	switch transaction.Type {
	case TypeDeposit, TypeWithdrawal:
		if transaction.AccountID == "" {
			return ErrAccountIDRequired
		}
	case TypeTransfer:
		if transaction.FromAccountID == "" || transaction.ToAccountID == "" {
			return ErrEndpointsRequired
		}
		if transaction.FromAccountID == transaction.ToAccountID {
			return ErrEndpointsIdentical
		}
	default:
		return ErrUnknownType
	}
	return nil
}

// AffectedAccountIDs returns the distinct set of account ids the transaction
// touches. A transfer yields two ids, everything else one.
func (transaction *Transaction) AffectedAccountIDs() []string {
	switch transaction.Type {
	case TypeTransfer:
		return []string{transaction.FromAccountID, transaction.ToAccountID}
	default:
		if transaction.AccountID == "" {
			return nil
		}
		return []string{transaction.AccountID}
	}
}

// ApplyTransaction posts the transaction's monetary effect to the accounts it
// references and stamps their last activity date. The accounts map must hold
// every id returned by AffectedAccountIDs.
func ApplyTransaction(transaction *Transaction, accounts map[string]*Account) error {
	return adjust(transaction, accounts, false)
}

// ReverseTransaction applies the sign-flipped effect of the transaction. It
// never touches last_tx_date: the correct post-deletion value depends on the
// remaining history and is re-derived afterwards.
func ReverseTransaction(transaction *Transaction, accounts map[string]*Account) error {
	return adjust(transaction, accounts, true)
}

func adjust(transaction *Transaction, accounts map[string]*Account, reverse bool) error {
	if err := transaction.Validate(); err != nil {
		return err
	}
	amount := transaction.Amount
	if reverse {
		amount = amount.Neg()
	}

	switch transaction.Type {
	case TypeDeposit:
		account, err := lookup(accounts, transaction.AccountID)
		if err != nil {
			return err
		}
		account.credit(amount)
		if !reverse {
			account.touch(transaction.Date)
		}
	case TypeWithdrawal:
		account, err := lookup(accounts, transaction.AccountID)
		if err != nil {
			return err
		}
		account.debit(amount)
		if !reverse {
			account.touch(transaction.Date)
		}
	case TypeTransfer:
		from, err := lookup(accounts, transaction.FromAccountID)
		if err != nil {
			return err
		}
		to, err := lookup(accounts, transaction.ToAccountID)
		if err != nil {
			return err
		}
		from.debit(amount)
		to.credit(amount)
		if !reverse {
			from.touch(transaction.Date)
			to.touch(transaction.Date)
		}
	}
	return nil
}

func lookup(accounts map[string]*Account, id string) (*Account, error) {
	account, ok := accounts[id]
	if !ok || account == nil {
		return nil, fmt.Errorf("account '%s' not loaded for balance adjustment", id)
	}
	return account, nil
}

// Effect returns the signed contribution of the transaction to the given
// account: deposits and incoming transfers count positive, withdrawals and
// outgoing transfers negative, anything else zero.
func (transaction *Transaction) Effect(accountID string) decimal.Decimal {
	switch {
	case transaction.Type == TypeDeposit && transaction.AccountID == accountID:
		return transaction.Amount
	case transaction.Type == TypeWithdrawal && transaction.AccountID == accountID:
		return transaction.Amount.Neg()
	case transaction.Type == TypeTransfer && transaction.FromAccountID == accountID:
		return transaction.Amount.Neg()
	case transaction.Type == TypeTransfer && transaction.ToAccountID == accountID:
		return transaction.Amount
	}
	return decimal.Zero
}
