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
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/stashbook-finance/stashbook/internal/apierror"
	"github.com/stashbook-finance/stashbook/internal/notification"
	"github.com/stashbook-finance/stashbook/model"
)

const accountCacheTTL = 5 * time.Minute

func accountCacheKey(id string) string {
	return fmt.Sprintf("stashbook:account:%s", id)
}

// postAccountActions fires the side effects of an account mutation. They run
// asynchronously; a failed webhook never fails the mutation itself.
func (s *Stashbook) postAccountActions(_ context.Context, event string, account *model.Account) {
	go func() {
		err := SendWebhook(NewWebhook{
			Event:   event,
			Payload: account,
		})
		if err != nil {
			notification.NotifyError(err)
		}
	}()
}

func (s *Stashbook) invalidateAccountCache(ctx context.Context, ids ...string) {
	if s.cache == nil {
		return
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, accountCacheKey(id)); err != nil {
			logrus.Warnf("failed to invalidate cache for account %s: %v", id, err)
		}
	}
}

func validateAccountEnums(account *model.Account) error {
	if !slices.Contains(model.AccountTypes, account.AccountType) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a valid account type", account.AccountType), nil)
	}
	if account.StashType != "" && !slices.Contains(model.StashTypes, account.StashType) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a valid stash type", account.StashType), nil)
	}
	if account.GoalFrequency != "" && !slices.Contains(model.GoalFrequencies, account.GoalFrequency) {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("'%s' is not a valid goal frequency", account.GoalFrequency), nil)
	}
	return nil
}

// fetchOwnedAccount loads an account and verifies it belongs to userID.
// Ownership failures are reported as forbidden, not as not-found, since the
// account id namespace is shared across users.
func (s *Stashbook) fetchOwnedAccount(ctx context.Context, id, userID string) (*model.Account, error) {
	account, err := s.datasource.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.UserID != userID {
		return nil, apierror.NewAPIError(apierror.ErrForbidden, fmt.Sprintf("Account with ID '%s' does not belong to the requesting user", id), nil)
	}
	return account, nil
}

// CreateAccount creates a new account for the given user. The account id is
// caller-assigned; creating an account with an existing id is a conflict.
func (s *Stashbook) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	ctx, span := tracer.Start(ctx, "Creating account")
	defer span.End()

	if account.AccountID == "" {
		account.AccountID = model.GenerateUUIDWithSuffix("acc")
	}
	if err := validateAccountEnums(&account); err != nil {
		return model.Account{}, err
	}

	created, err := s.datasource.CreateAccount(account)
	if err != nil {
		span.RecordError(err)
		return model.Account{}, err
	}

	span.AddEvent("Account created", trace.WithAttributes(attribute.String("account.id", created.AccountID)))
	s.postAccountActions(ctx, "account.created", &created)
	return created, nil
}

// GetAccount retrieves an account for the given user, serving from the cache
// when possible.
func (s *Stashbook) GetAccount(ctx context.Context, id, userID string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "Getting account")
	defer span.End()

	if s.cache != nil {
		var cached model.Account
		if err := s.cache.Get(ctx, accountCacheKey(id), &cached); err == nil && cached.AccountID != "" {
			if cached.UserID != userID {
				return nil, apierror.NewAPIError(apierror.ErrForbidden, fmt.Sprintf("Account with ID '%s' does not belong to the requesting user", id), nil)
			}
			return &cached, nil
		}
	}

	account, err := s.fetchOwnedAccount(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, accountCacheKey(id), account, accountCacheTTL); err != nil {
			logrus.Warnf("failed to cache account %s: %v", id, err)
		}
	}
	return account, nil
}

// GetAllAccounts retrieves the user's active accounts.
func (s *Stashbook) GetAllAccounts(ctx context.Context, userID string, limit, offset int) ([]model.Account, error) {
	return s.datasource.GetAllAccounts(ctx, userID, model.StatusActive, limit, offset)
}

// GetClosedAccounts retrieves the user's closed accounts.
func (s *Stashbook) GetClosedAccounts(ctx context.Context, userID string, limit, offset int) ([]model.Account, error) {
	return s.datasource.GetAllAccounts(ctx, userID, model.StatusClosed, limit, offset)
}

// UpdateAccount applies a sparse patch to an account. The balance and the
// activity date are not patchable; they belong to the ledger.
func (s *Stashbook) UpdateAccount(ctx context.Context, id, userID string, patch model.AccountPatch) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "Updating account")
	defer span.End()

	account, err := s.fetchOwnedAccount(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	account.Apply(patch)
	if err := validateAccountEnums(account); err != nil {
		return nil, err
	}
	if err := s.datasource.UpdateAccount(account); err != nil {
		return nil, err
	}
	s.invalidateAccountCache(ctx, id)
	s.postAccountActions(ctx, "account.updated", account)
	return account, nil
}

// DeleteAccount removes an account together with every transaction that
// references it. The cascade does not reverse balances on counterparty
// accounts; the history disappears wholesale rather than being unwound entry
// by entry.
func (s *Stashbook) DeleteAccount(ctx context.Context, id, userID string) error {
	ctx, span := tracer.Start(ctx, "Deleting account")
	defer span.End()

	account, err := s.fetchOwnedAccount(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.datasource.DeleteAccountCascade(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}

	span.AddEvent("Account deleted", trace.WithAttributes(attribute.String("account.id", id)))
	s.invalidateAccountCache(ctx, id)
	s.postAccountActions(ctx, "account.deleted", account)
	return nil
}

// CloseAccount marks the account closed with an optional reason. Closing an
// already closed account is a conflict.
func (s *Stashbook) CloseAccount(ctx context.Context, id, userID, reason string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "Closing account")
	defer span.End()

	account, err := s.fetchOwnedAccount(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := account.Close(reason); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, err.Error(), err)
	}
	if err := s.datasource.UpdateAccount(account); err != nil {
		return nil, err
	}

	span.AddEvent("Account closed", trace.WithAttributes(attribute.String("account.id", id)))
	s.invalidateAccountCache(ctx, id)
	s.postAccountActions(ctx, "account.closed", account)
	return account, nil
}

// RestoreAccount reopens a closed account and clears its closed reason.
// Restoring an active account is a conflict.
func (s *Stashbook) RestoreAccount(ctx context.Context, id, userID string) (*model.Account, error) {
	ctx, span := tracer.Start(ctx, "Restoring account")
	defer span.End()

	account, err := s.fetchOwnedAccount(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := account.Restore(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, err.Error(), err)
	}
	if err := s.datasource.UpdateAccount(account); err != nil {
		return nil, err
	}
	s.invalidateAccountCache(ctx, id)
	s.postAccountActions(ctx, "account.restored", account)
	return account, nil
}
