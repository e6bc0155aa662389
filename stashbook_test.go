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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/stashbook-finance/stashbook/config"
	"github.com/stashbook-finance/stashbook/database"
)

// newTestService wires a Stashbook instance against a sqlmock connection and
// an in-process redis, so tests exercise the cache path for real.
func newTestService(t *testing.T) (*Stashbook, sqlmock.Sqlmock) {
	t.Helper()

	redisServer := miniredis.RunT(t)
	cnf := &config.Configuration{}
	cnf.Redis.Dns = redisServer.Addr()
	config.MockConfig(cnf)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	service, err := NewStashbook(&database.Datasource{Conn: db})
	require.NoError(t, err)
	return service, mock
}

func accountStoreRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"account_id", "name", "account_type", "balance", "status", "closed_reason", "stash_type", "goal_amount", "goal_date", "goal_frequency", "last_tx_date", "user_id", "created_at", "meta_data"})
}

func activeAccountRow(rows *sqlmock.Rows, id, balance, userID string) *sqlmock.Rows {
	return rows.AddRow(id, "Everyday Checking", "Checking", balance, "active", nil, "Bank", nil, nil, nil, nil, userID, time.Now(), []byte(`{}`))
}
