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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	redlock "github.com/stashbook-finance/stashbook/internal/lock"
	"github.com/stashbook-finance/stashbook/model"
)

const (
	reconcileMaxRetries  = 3
	reconcileLockKey     = "stashbook:reconciliation:lock"
	reconcileLockTimeout = 5 * time.Minute
)

// reconcileAccount re-derives a single account's last activity date, retrying
// with exponential backoff. Used when the recompute step of a transaction
// delete fails after the delete itself has committed.
func (s *Stashbook) reconcileAccount(ctx context.Context, accountID string) error {
	operation := func() error {
		_, err := s.datasource.RecomputeLastTxDate(ctx, accountID)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, reconcileMaxRetries), ctx))
	if err != nil {
		return errors.Wrapf(err, "reconciling last transaction date for account %s", accountID)
	}
	return nil
}

// ReconcileLastTxDates re-derives the last activity date of every account from
// its transaction history. It returns the number of accounts reconciled and
// keeps going past individual failures, reporting the first error at the end.
// Only one sweep runs at a time, enforced by a Redis lock.
func (s *Stashbook) ReconcileLastTxDates(ctx context.Context) (int, error) {
	locker := redlock.NewLocker(s.redis, reconcileLockKey, model.GenerateUUIDWithSuffix("lock"))
	if err := locker.Lock(ctx, reconcileLockTimeout); err != nil {
		return 0, errors.Wrap(err, "another reconciliation run is in progress")
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Warnf("failed to release reconciliation lock: %v", err)
		}
	}()

	ids, err := s.datasource.ListAccountIDs(ctx)
	if err != nil {
		return 0, err
	}

	var firstErr error
	reconciled := 0
	for _, id := range ids {
		if err := s.reconcileAccount(ctx, id); err != nil {
			logrus.Errorf("reconciliation failed for account %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		reconciled++
	}
	return reconciled, firstErr
}
