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

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	model2 "github.com/stashbook-finance/stashbook/api/model"
)

func transactionAPIRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"transaction_id", "tx_date", "type", "amount", "description", "account_id", "from_account_id", "to_account_id", "user_id", "created_at", "meta_data"})
}

func TestRecordTransactionEndpoint_Deposit(t *testing.T) {
	router, mock := setupRouter(t)

	accountID := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(accountID).
		WillReturnRows(activeAccountAPIRow(accountID, "0.00", "usr_1"))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance", "status", "last_tx_date", "user_id"}).
			AddRow(accountID, "0.00", "active", nil, "usr_1"))
	mock.ExpectExec("UPDATE stashbook.accounts SET balance").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO stashbook.transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	resp := doRequest(t, router, http.MethodPost, "/transactions", "usr_1", model2.RecordTransaction{
		ID:        gofakeit.UUID(),
		Type:      "deposit",
		Amount:    decimal.RequireFromString("25.50"),
		AccountID: accountID,
	})
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), "25.5")
}

func TestRecordTransactionEndpoint_ValidationErrors(t *testing.T) {
	router, _ := setupRouter(t)

	// Deposit without an account
	resp := doRequest(t, router, http.MethodPost, "/transactions", "usr_1", model2.RecordTransaction{
		ID:     gofakeit.UUID(),
		Type:   "deposit",
		Amount: decimal.RequireFromString("5.00"),
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Transfer to self
	id := gofakeit.UUID()
	resp = doRequest(t, router, http.MethodPost, "/transactions", "usr_1", model2.RecordTransaction{
		ID:            gofakeit.UUID(),
		Type:          "transfer",
		Amount:        decimal.RequireFromString("5.00"),
		FromAccountID: id,
		ToAccountID:   id,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	// Negative amount
	resp = doRequest(t, router, http.MethodPost, "/transactions", "usr_1", model2.RecordTransaction{
		ID:        gofakeit.UUID(),
		Type:      "withdrawal",
		Amount:    decimal.RequireFromString("-5.00"),
		AccountID: gofakeit.UUID(),
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetTransactionEndpoint(t *testing.T) {
	router, mock := setupRouter(t)

	txnID := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.transactions WHERE transaction_id = ?").
		WithArgs(txnID).
		WillReturnRows(transactionAPIRows().
			AddRow(txnID, time.Now(), "deposit", "25.50", "Paycheck", "acc_1", nil, nil, "usr_1", time.Now(), []byte(`{}`)))

	resp := doRequest(t, router, http.MethodGet, "/transactions/"+txnID, "usr_1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Paycheck")
}

func TestDeleteTransactionEndpoint(t *testing.T) {
	router, mock := setupRouter(t)

	accountID := gofakeit.UUID()
	txnID := gofakeit.UUID()
	txDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM stashbook.transactions WHERE transaction_id = ?").
		WithArgs(txnID).
		WillReturnRows(transactionAPIRows().
			AddRow(txnID, txDate, "deposit", "25.50", "", accountID, nil, nil, "usr_1", time.Now(), []byte(`{}`)))
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance", "status", "last_tx_date", "user_id"}).
			AddRow(accountID, "25.50", "active", txDate, "usr_1"))
	mock.ExpectExec("UPDATE stashbook.accounts SET balance").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM stashbook.transactions").
		WithArgs(txnID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("UPDATE stashbook.accounts").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"last_tx_date"}).AddRow(nil))

	resp := doRequest(t, router, http.MethodDelete, "/transactions/"+txnID, "usr_1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsEndpoint(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT .* FROM stashbook.transactions").
		WithArgs("usr_1", 50, 0).
		WillReturnRows(transactionAPIRows().
			AddRow(gofakeit.UUID(), time.Now(), "withdrawal", "10.00", "Groceries", "acc_1", nil, nil, "usr_1", time.Now(), []byte(`{}`)))

	resp := doRequest(t, router, http.MethodGet, "/transactions", "usr_1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Groceries")
}

func TestListTransactionsEndpoint_OversizedPaginationFallsBack(t *testing.T) {
	router, mock := setupRouter(t)

	mock.ExpectQuery("SELECT .* FROM stashbook.transactions").
		WithArgs("usr_1", 50, 0).
		WillReturnRows(transactionAPIRows())

	resp := doRequest(t, router, http.MethodGet, "/transactions?limit=99999999999999999999&offset=-3", "usr_1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountTransactionsEndpoint(t *testing.T) {
	router, mock := setupRouter(t)

	accountID := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(accountID).
		WillReturnRows(activeAccountAPIRow(accountID, "70.00", "usr_1"))
	mock.ExpectQuery("SELECT .* FROM stashbook.transactions").
		WithArgs(accountID, 50, 0).
		WillReturnRows(transactionAPIRows().
			AddRow(gofakeit.UUID(), time.Now(), "transfer", "30.00", "", nil, accountID, gofakeit.UUID(), "usr_1", time.Now(), []byte(`{}`)))

	resp := doRequest(t, router, http.MethodGet, "/accounts/"+accountID+"/transactions", "usr_1", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}
