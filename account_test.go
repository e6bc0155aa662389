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

package stashbook

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/model"
)

func TestCreateAccount(t *testing.T) {
	service, mock := newTestService(t)

	account := model.Account{
		AccountID:   gofakeit.UUID(),
		Name:        "Everyday Checking",
		AccountType: "Checking",
		UserID:      "usr_1",
	}

	mock.ExpectExec("INSERT INTO stashbook.accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := service.CreateAccount(context.Background(), account)
	assert.NoError(t, err)
	assert.Equal(t, account.AccountID, created.AccountID)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
}

func TestCreateAccount_GeneratesIDWhenEmpty(t *testing.T) {
	service, mock := newTestService(t)

	mock.ExpectExec("INSERT INTO stashbook.accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	created, err := service.CreateAccount(context.Background(), model.Account{
		Name:        "Rainy Day",
		AccountType: "Savings",
		UserID:      "usr_1",
	})
	assert.NoError(t, err)
	assert.Contains(t, created.AccountID, "acc_")
}

func TestCreateAccount_InvalidType(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.CreateAccount(context.Background(), model.Account{
		AccountID:   gofakeit.UUID(),
		Name:        "Bad",
		AccountType: "Mattress",
		UserID:      "usr_1",
	})
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrInvalidInput, apiErr.Code)
}

func TestGetAccount_ServesFromCacheOnRepeat(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "25.50", "usr_1"))

	first, err := service.GetAccount(context.Background(), id, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, id, first.AccountID)

	// The single store expectation is spent: a second read can only be
	// answered by the cache.
	second, err := service.GetAccount(context.Background(), id, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, id, second.AccountID)
	assert.Equal(t, "usr_1", second.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount_WrongUserForbidden(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "0.00", "usr_owner"))

	_, err := service.GetAccount(context.Background(), id, "usr_intruder")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrForbidden, apiErr.Code)
}

func TestUpdateAccount_Patch(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "10.00", "usr_1"))
	mock.ExpectExec("UPDATE stashbook.accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	newName := "Holiday Fund"
	updated, err := service.UpdateAccount(context.Background(), id, "usr_1", model.AccountPatch{Name: &newName})
	assert.NoError(t, err)
	assert.Equal(t, "Holiday Fund", updated.Name)
	// Untouched fields survive the patch.
	assert.Equal(t, "Checking", updated.AccountType)
}

func TestCloseAccount(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "0.00", "usr_1"))
	mock.ExpectExec("UPDATE stashbook.accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	closed, err := service.CloseAccount(context.Background(), id, "usr_1", "moving banks")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusClosed, closed.Status)
	assert.Equal(t, "moving banks", closed.ClosedReason)
}

func TestCloseAccount_AlreadyClosed(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(accountStoreRows().
			AddRow(id, "Old Savings", "Savings", "0.00", "closed", "done with it", "Bank", nil, nil, nil, nil, "usr_1", time.Now(), []byte(`{}`)))

	_, err := service.CloseAccount(context.Background(), id, "usr_1", "again")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestRestoreAccount(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(accountStoreRows().
			AddRow(id, "Old Savings", "Savings", "0.00", "closed", "done with it", "Bank", nil, nil, nil, nil, "usr_1", time.Now(), []byte(`{}`)))
	mock.ExpectExec("UPDATE stashbook.accounts").
		WillReturnResult(sqlmock.NewResult(0, 1))

	restored, err := service.RestoreAccount(context.Background(), id, "usr_1")
	assert.NoError(t, err)
	assert.Equal(t, model.StatusActive, restored.Status)
	assert.Empty(t, restored.ClosedReason)
}

func TestRestoreAccount_AlreadyActive(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "0.00", "usr_1"))

	_, err := service.RestoreAccount(context.Background(), id, "usr_1")
	assert.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	assert.True(t, ok)
	assert.Equal(t, apierror.ErrConflict, apiErr.Code)
}

func TestDeleteAccount_Cascades(t *testing.T) {
	service, mock := newTestService(t)

	id := gofakeit.UUID()
	mock.ExpectQuery("SELECT .* FROM stashbook.accounts WHERE account_id = ?").
		WithArgs(id).
		WillReturnRows(activeAccountRow(accountStoreRows(), id, "42.00", "usr_1"))
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM stashbook.transactions").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM stashbook.accounts").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.DeleteAccount(context.Background(), id, "usr_1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
