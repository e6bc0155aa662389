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
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stashbook-finance/stashbook/config"
	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/internal/notification"
	"github.com/stashbook-finance/stashbook/model"
)

var tracer = otel.Tracer("stashbook.ledger")

func (s *Stashbook) postTransactionActions(_ context.Context, event string, transaction *model.Transaction) {
	go func() {
		err := SendWebhook(NewWebhook{
			Event:   event,
			Payload: transaction,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}

// checkTransactionOwnership verifies every account the transaction references
// belongs to userID. Account ownership never changes, so checking before the
// unit of work is safe.
func (s *Stashbook) checkTransactionOwnership(ctx context.Context, txn *model.Transaction, userID string) error {
	for _, id := range txn.AffectedAccountIDs() {
		if _, err := s.fetchOwnedAccount(ctx, id, userID); err != nil {
			return err
		}
	}
	return nil
}

// RecordTransaction posts a deposit, withdrawal or transfer to the ledger. The
// balance adjustment, activity-date stamp and transaction row land atomically;
// concurrent postings to the same accounts serialize on row locks.
func (s *Stashbook) RecordTransaction(ctx context.Context, transaction *model.Transaction) (*model.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Recording transaction")
	defer span.End()

	cnf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	if transaction.TransactionID == "" {
		transaction.TransactionID = model.GenerateUUIDWithSuffix("txn")
	}
	if err := transaction.Validate(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, err.Error(), err)
	}
	if *cnf.Ledger.RejectNegativeAmounts && transaction.Amount.IsNegative() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, model.ErrNegativeAmount.Error(), model.ErrNegativeAmount)
	}
	if err := s.checkTransactionOwnership(ctx, transaction, transaction.UserID); err != nil {
		return nil, err
	}

	recorded, err := s.datasource.RecordTransaction(ctx, transaction, *cnf.Ledger.AllowClosedAccountTx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.AddEvent("Transaction recorded", trace.WithAttributes(attribute.String("transaction.id", recorded.TransactionID)))
	s.invalidateAccountCache(ctx, recorded.AffectedAccountIDs()...)
	s.postTransactionActions(ctx, "transaction.recorded", recorded)
	return recorded, nil
}

// GetTransaction retrieves a transaction belonging to the given user.
func (s *Stashbook) GetTransaction(ctx context.Context, id, userID string) (*model.Transaction, error) {
	transaction, err := s.datasource.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if transaction.UserID != userID {
		return nil, apierror.NewAPIError(apierror.ErrForbidden, fmt.Sprintf("Transaction with ID '%s' does not belong to the requesting user", id), nil)
	}
	return transaction, nil
}

// GetAllTransactions retrieves the user's transactions, most recent first.
func (s *Stashbook) GetAllTransactions(ctx context.Context, userID string, limit, offset int) ([]model.Transaction, error) {
	return s.datasource.GetAllTransactions(ctx, userID, limit, offset)
}

// GetTransactionsByAccount retrieves the transactions touching one of the
// user's accounts in any role.
func (s *Stashbook) GetTransactionsByAccount(ctx context.Context, accountID, userID string, limit, offset int) ([]model.Transaction, error) {
	if _, err := s.fetchOwnedAccount(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.datasource.GetTransactionsByAccount(ctx, accountID, limit, offset)
}

// DeleteTransaction removes a transaction and undoes its monetary effect. The
// reversal and the delete commit together; the activity dates of the affected
// accounts are then re-derived from the surviving history. If a recompute
// fails after the delete has committed, the account is repaired by the
// reconciliation pass rather than by failing the request.
func (s *Stashbook) DeleteTransaction(ctx context.Context, id, userID string) error {
	ctx, span := tracer.Start(ctx, "Deleting transaction")
	defer span.End()

	transaction, err := s.GetTransaction(ctx, id, userID)
	if err != nil {
		return err
	}

	affected, err := s.datasource.DeleteTransactionWithReversal(ctx, transaction)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.AddEvent("Transaction deleted", trace.WithAttributes(attribute.String("transaction.id", id)))

	// The delete has committed at this point. A failed recompute leaves a
	// stale activity date, never a failed delete: report it and leave the
	// repair to the reconciliation sweep.
	for _, accountID := range affected {
		if _, err := s.datasource.RecomputeLastTxDate(ctx, accountID); err != nil {
			logrus.Errorf("failed to recompute last transaction date for account %s: %v", accountID, err)
			if recErr := s.reconcileAccount(ctx, accountID); recErr != nil {
				logrus.Errorf("account %s left for the reconciliation sweep: %v", accountID, recErr)
				notification.NotifyError(recErr)
			}
		}
	}

	s.invalidateAccountCache(ctx, affected...)
	s.postTransactionActions(ctx, "transaction.deleted", transaction)
	return nil
}
