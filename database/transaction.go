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
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/model"
)

const transactionColumns = `transaction_id, tx_date, type, amount, description, account_id, from_account_id, to_account_id, user_id, created_at, meta_data`

// lockAccountRow loads an account under FOR UPDATE inside the given database
// transaction. The lock is held until the transaction commits or rolls back,
// so concurrent postings to the same account serialize on this row.
func lockAccountRow(ctx context.Context, tx *sql.Tx, id string) (*model.Account, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT account_id, balance, status, last_tx_date, user_id
		FROM stashbook.accounts WHERE account_id = $1 FOR UPDATE
	`, id)

	account := &model.Account{}
	var balanceStr string
	var lastTxDate sql.NullTime
	err := row.Scan(&account.AccountID, &balanceStr, &account.Status, &lastTxDate, &account.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to lock account row", err)
	}
	account.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to parse account balance", err)
	}
	if lastTxDate.Valid {
		d := lastTxDate.Time
		account.LastTxDate = &d
	}
	return account, nil
}

// lockAffectedAccounts locks every account the transaction references, in
// ascending id order so two concurrent transfers over the same pair of
// accounts cannot deadlock. The sorted id slice is returned so callers write
// balances back in the same deterministic order.
func lockAffectedAccounts(ctx context.Context, tx *sql.Tx, txn *model.Transaction) (map[string]*model.Account, []string, error) {
	ids := txn.AffectedAccountIDs()
	sort.Strings(ids)

	accounts := make(map[string]*model.Account, len(ids))
	for _, id := range ids {
		account, err := lockAccountRow(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		accounts[id] = account
	}
	return accounts, ids, nil
}

func writeAccountBalance(ctx context.Context, tx *sql.Tx, account *model.Account) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE stashbook.accounts SET balance = $2, last_tx_date = $3 WHERE account_id = $1
	`, account.AccountID, account.Balance.StringFixed(2), account.LastTxDate)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account balance", err)
	}
	return nil
}

// RecordTransaction posts a transaction and adjusts every referenced account
// balance in a single unit of work. Either the transaction row and all balance
// updates land together, or none of them do.
func (d Datasource) RecordTransaction(ctx context.Context, txn *model.Transaction, allowClosedAccounts bool) (*model.Transaction, error) {
	metaDataJSON, err := json.Marshal(txn.MetaData)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal metadata", err)
	}
	if txn.Date.IsZero() {
		txn.Date = time.Now()
	}
	txn.CreatedAt = time.Now()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	accounts, ids, err := lockAffectedAccounts(ctx, tx, txn)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if !allowClosedAccounts {
		for _, id := range ids {
			if accounts[id].IsClosed() {
				_ = tx.Rollback()
				return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Account with ID '%s' is closed", id), nil)
			}
		}
	}

	if err := model.ApplyTransaction(txn, accounts); err != nil {
		_ = tx.Rollback()
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}

	for _, id := range ids {
		if err := writeAccountBalance(ctx, tx, accounts[id]); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stashbook.transactions (transaction_id, tx_date, type, amount, description, account_id, from_account_id, to_account_id, user_id, created_at, meta_data)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), $9, $10, $11)
	`, txn.TransactionID, txn.Date, txn.Type, txn.Amount.StringFixed(2), txn.Description,
		txn.AccountID, txn.FromAccountID, txn.ToAccountID, txn.UserID, txn.CreatedAt, metaDataJSON)
	if err != nil {
		_ = tx.Rollback()
		pqErr, ok := err.(*pq.Error)
		if ok {
			switch pqErr.Code.Name() {
			case "unique_violation":
				return nil, apierror.NewAPIError(apierror.ErrConflict, fmt.Sprintf("Transaction with ID '%s' already exists", txn.TransactionID), err)
			case "foreign_key_violation":
				return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid account or user reference", err)
			}
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record transaction", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return txn, nil
}

// GetTransaction retrieves a transaction by its ID.
func (d Datasource) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	row := d.Conn.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s FROM stashbook.transactions WHERE transaction_id = $1
	`, transactionColumns), id)

	txn, err := scanTransactionRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
	}
	return txn, nil
}

func scanTransactionRow(row rowScanner) (*model.Transaction, error) {
	txn := &model.Transaction{}
	var amountStr string
	var accountID, fromAccountID, toAccountID sql.NullString
	var metaDataJSON []byte

	err := row.Scan(&txn.TransactionID, &txn.Date, &txn.Type, &amountStr, &txn.Description,
		&accountID, &fromAccountID, &toAccountID, &txn.UserID, &txn.CreatedAt, &metaDataJSON)
	if err != nil {
		return nil, err
	}

	txn.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, err
	}
	txn.AccountID = accountID.String
	txn.FromAccountID = fromAccountID.String
	txn.ToAccountID = toAccountID.String
	if len(metaDataJSON) > 0 {
		if err := json.Unmarshal(metaDataJSON, &txn.MetaData); err != nil {
			return nil, err
		}
	}
	return txn, nil
}

// GetAllTransactions retrieves a user's transactions, most recent first.
func (d Datasource) GetAllTransactions(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM stashbook.transactions
		WHERE user_id = $1
		ORDER BY tx_date DESC, created_at DESC LIMIT $2 OFFSET $3
	`, transactionColumns), userID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve transactions", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

// GetTransactionsByAccount retrieves the transactions touching an account in
// any role, most recent first.
func (d Datasource) GetTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := d.Conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM stashbook.transactions
		WHERE account_id = $1 OR from_account_id = $1 OR to_account_id = $1
		ORDER BY tx_date DESC, created_at DESC LIMIT $2 OFFSET $3
	`, transactionColumns), accountID, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account transactions", err)
	}
	defer func() { _ = rows.Close() }()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan transaction data", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over transactions", err)
	}
	return transactions, nil
}

// DeleteTransactionWithReversal removes a transaction and backs its monetary
// effect out of every referenced account, all in one unit of work. It returns
// the affected account ids so the caller can recompute each account's
// last_tx_date from the surviving history.
func (d Datasource) DeleteTransactionWithReversal(ctx context.Context, txn *model.Transaction) ([]string, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}

	accounts, ids, err := lockAffectedAccounts(ctx, tx, txn)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := model.ReverseTransaction(txn, accounts); err != nil {
		_ = tx.Rollback()
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reverse transaction effect", err)
	}

	for _, id := range ids {
		if err := writeAccountBalance(ctx, tx, accounts[id]); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM stashbook.transactions WHERE transaction_id = $1
	`, txn.TransactionID)
	if err != nil {
		_ = tx.Rollback()
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete transaction", err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		_ = tx.Rollback()
		return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Transaction with ID '%s' not found", txn.TransactionID), nil)
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return ids, nil
}

// RecomputeLastTxDate re-derives an account's last_tx_date from its surviving
// transaction history. The subquery yields NULL when no transactions remain,
// which clears the column.
func (d Datasource) RecomputeLastTxDate(ctx context.Context, accountID string) (*time.Time, error) {
	row := d.Conn.QueryRowContext(ctx, `
		UPDATE stashbook.accounts
		SET last_tx_date = (
			SELECT MAX(tx_date) FROM stashbook.transactions
			WHERE account_id = $1 OR from_account_id = $1 OR to_account_id = $1
		)
		WHERE account_id = $1
		RETURNING last_tx_date
	`, accountID)

	var lastTxDate sql.NullTime
	if err := row.Scan(&lastTxDate); err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", accountID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to recompute last transaction date", err)
	}
	if !lastTxDate.Valid {
		return nil, nil
	}
	d2 := lastTxDate.Time
	return &d2, nil
}
