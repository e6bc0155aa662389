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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/model"
)

const accountColumns = `account_id, name, account_type, balance, status, closed_reason, stash_type, goal_amount, goal_date, goal_frequency, last_tx_date, user_id, created_at, meta_data`

// CreateAccount inserts a new Account. The account id is caller-assigned, so
// a unique violation maps to a conflict rather than a retry.
func (d Datasource) CreateAccount(account model.Account) (model.Account, error) {
	metaDataJSON, err := json.Marshal(account.MetaData)
	if err != nil {
		return account, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	if account.Status == "" {
		account.Status = model.StatusActive
	}
	if account.StashType == "" {
		account.StashType = "Bank"
	}
	account.CreatedAt = time.Now()

	var goalAmount interface{}
	if account.GoalAmount != nil {
		goalAmount = account.GoalAmount.StringFixed(2)
	}

	_, err = d.Conn.Exec(`
		INSERT INTO stashbook.accounts (account_id, name, account_type, balance, status, closed_reason, stash_type, goal_amount, goal_date, goal_frequency, last_tx_date, user_id, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14)
	`, account.AccountID, account.Name, account.AccountType, account.Balance.StringFixed(2), account.Status, account.ClosedReason,
		account.StashType, goalAmount, account.GoalDate, account.GoalFrequency, account.LastTxDate, account.UserID, account.CreatedAt, metaDataJSON)

	if err != nil {
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return model.Account{}, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Account with ID '%s' already exists", account.AccountID), err)
			case "foreign_key_violation":
				return model.Account{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid user ID", err)
			default:
				return model.Account{}, apierror.NewAPIError(apierror.ErrInternalServer, "Database error occurred", err)
			}
		}
		return model.Account{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to create account", err)
	}

	return account, nil
}

// GetAccountByID retrieves an account by its ID.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM stashbook.accounts WHERE account_id = $1
	`, accountColumns), id)

	account, err := scanAccountRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
	}
	return account, nil
}

// rowScanner lets the same scan logic run against sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	var balanceStr string
	var closedReason, goalFrequency sql.NullString
	var goalAmount decimal.NullDecimal
	var goalDate, lastTxDate sql.NullTime
	var metaDataJSON []byte

	err := row.Scan(&account.AccountID, &account.Name, &account.AccountType, &balanceStr, &account.Status,
		&closedReason, &account.StashType, &goalAmount, &goalDate, &goalFrequency, &lastTxDate,
		&account.UserID, &account.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}

	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, err
	}
	if closedReason.Valid {
		account.ClosedReason = closedReason.String
	}
	if goalAmount.Valid {
		amount := goalAmount.Decimal
		account.GoalAmount = &amount
	}
	if goalDate.Valid {
		d := goalDate.Time
		account.GoalDate = &d
	}
	if goalFrequency.Valid {
		account.GoalFrequency = goalFrequency.String
	}
	if lastTxDate.Valid {
		d := lastTxDate.Time
		account.LastTxDate = &d
	}
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &account.MetaData); err != nil {
			return nil, err
		}
	}

	return account, nil
}

// GetAllAccounts retrieves a user's accounts, optionally filtered by status.
func (d Datasource) GetAllAccounts(ctx context.Context, userID, status string, limit, offset int) ([]model.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM stashbook.accounts
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, accountColumns)

	rows, err := d.Conn.QueryContext(ctx, query, userID, status, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccountRow(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		accounts = append(accounts, *account)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over accounts", err)
	}

	return accounts, nil
}

// UpdateAccount persists the mutable, non-ledger fields of an account. The
// balance and last_tx_date columns are owned by the ledger units of work and
// are deliberately not written here.
func (d Datasource) UpdateAccount(account *model.Account) error {
	metaDataJSON, err := json.Marshal(account.MetaData)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}

	var goalAmount interface{}
	if account.GoalAmount != nil {
		goalAmount = account.GoalAmount.StringFixed(2)
	}

	result, err := d.Conn.Exec(`
		UPDATE stashbook.accounts
		SET name = $2, account_type = $3, status = $4, closed_reason = NULLIF($5, ''), stash_type = $6,
		    goal_amount = $7, goal_date = $8, goal_frequency = NULLIF($9, ''), meta_data = $10
		WHERE account_id = $1
	`, account.AccountID, account.Name, account.AccountType, account.Status, account.ClosedReason,
		account.StashType, goalAmount, account.GoalDate, account.GoalFrequency, metaDataJSON)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account", err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", account.AccountID), nil)
	}
	return nil
}

// DeleteAccountCascade removes every transaction referencing the account in
// any role, then the account itself, in one database transaction. Individual
// reversals are pointless here since the account is going away.
func (d Datasource) DeleteAccountCascade(ctx context.Context, id string) error {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM stashbook.transactions
		WHERE account_id = $1 OR from_account_id = $1 OR to_account_id = $1
	`, id)
	if err != nil {
		_ = tx.Rollback()
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete account transactions", err)
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM stashbook.accounts WHERE account_id = $1
	`, id)
	if err != nil {
		_ = tx.Rollback()
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete account", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		_ = tx.Rollback()
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), nil)
	}

	if err := tx.Commit(); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return nil
}

// ListAccountIDs returns every account id. Used by the reconciliation pass.
func (d Datasource) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := d.Conn.QueryContext(ctx, `SELECT account_id FROM stashbook.accounts ORDER BY account_id`)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to list account ids", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account id", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over account ids", err)
	}
	return ids, nil
}
