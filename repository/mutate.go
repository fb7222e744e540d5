package repository

import (
	"context"
	"errors"
	"time"

	"agrispray/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	mutateAttempts = 3

	// CompensationAttempts is the retry budget for writes that undo an
	// already applied change, such as a quota refund.
	CompensationAttempts = 10

	retryBackoff = 5 * time.Millisecond
)

// ErrSkipWrite may be returned by a mutation to end MutateAccount without
// persisting anything.
var ErrSkipWrite = errors.New("skip write")

// MutateAccount loads the account, applies fn and writes it back conditionally
// on its version, retrying the whole read-modify-write on concurrent updates.
// An error from fn aborts without writing and is returned as is.
func MutateAccount(ctx context.Context, store AccountStore, id primitive.ObjectID, fn func(*models.Account) error) (*models.Account, error) {
	return MutateAccountAttempts(ctx, store, id, mutateAttempts, fn)
}

// MutateAccountAttempts is MutateAccount with an explicit attempt budget.
// Retries back off linearly.
func MutateAccountAttempts(ctx context.Context, store AccountStore, id primitive.ObjectID, attempts int, fn func(*models.Account) error) (*models.Account, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		account, err := store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := fn(account); err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return account, nil
			}
			return nil, err
		}

		err = store.Update(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
