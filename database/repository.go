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
	"time"

	"github.com/stashbook-finance/stashbook/model"
)

// IDataSource defines the interface for data source operations, grouping
// related functionalities.
type IDataSource interface {
	transaction
	account
	user
}

// transaction defines methods for handling transactions. RecordTransaction
// and DeleteTransactionWithReversal are the two ledger units of work: each
// runs in a single database transaction that row-locks every referenced
// account before touching its balance.
type transaction interface {
	RecordTransaction(ctx context.Context, txn *model.Transaction, allowClosedAccounts bool) (*model.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetAllTransactions(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error)
	GetTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]model.Transaction, error)
	DeleteTransactionWithReversal(ctx context.Context, txn *model.Transaction) ([]string, error)
	RecomputeLastTxDate(ctx context.Context, accountID string) (*time.Time, error)
}

// account defines methods for handling accounts.
type account interface {
	CreateAccount(account model.Account) (model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAllAccounts(ctx context.Context, userID, status string, limit, offset int) ([]model.Account, error)
	UpdateAccount(account *model.Account) error
	DeleteAccountCascade(ctx context.Context, id string) error
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// user defines methods for handling users.
type user interface {
	CreateUser(user model.User) (model.User, error)
	GetUserByID(id string) (*model.User, error)
}
