package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// maxSaveAttempts bounds the optimistic-write retry loop before a conflict
// surfaces as an internal error.
const maxSaveAttempts = 3

// Ledger owns per-user daily credit accounting. Reserve pre-charges an
// estimated cost before a generation call; Reconcile corrects the charge
// once the real output size is known.
type Ledger struct {
	store  UserStore
	limits Limits
	now    func() time.Time
}

// NewLedger creates a Ledger over the given store and billing policy.
func NewLedger(store UserStore, limits Limits) *Ledger {
	return &Ledger{store: store, limits: limits, now: time.Now}
}

// Limits returns the ledger's billing policy.
func (l *Ledger) Limits() Limits {
	return l.limits
}

// Reserve charges inputTokens*InputWeight + outputEstimate*OutputWeight
// against the user's daily allowance.
//
// The UTC date rollover reset is applied and persisted even when the
// reservation itself is rejected. A rejected reservation otherwise leaves
// the record untouched and returns *QuotaExceededError with the remaining
// allowance.
func (l *Ledger) Reserve(ctx context.Context, userID string, inputTokens, outputEstimate int) (Snapshot, error) {
	cost := l.limits.Cost(inputTokens, outputEstimate)
	return l.apply(ctx, userID, func(used int) (int, error) {
		if used+cost > l.limits.DailyLimit {
			return used, &QuotaExceededError{Remaining: l.limits.DailyLimit - used}
		}
		return used + cost, nil
	})
}

// Reconcile replaces the reserved output estimate with the actual output
// token count reported by the generation service. It applies the delta
// (actual minus estimated output cost) and never rejects: the reply has
// already been delivered, so an over-budget delta caps usage at the daily
// limit instead of failing.
func (l *Ledger) Reconcile(ctx context.Context, userID string, outputEstimate, actualOutput int) (Snapshot, error) {
	return l.Adjust(ctx, userID, (actualOutput-outputEstimate)*l.limits.OutputWeight)
}

// Adjust applies a raw credit delta to the user's usage, clamped to
// [0, DailyLimit]. Like Reconcile it never rejects; it exists for callers
// that correct both input and output sides of a reservation in one write.
func (l *Ledger) Adjust(ctx context.Context, userID string, delta int) (Snapshot, error) {
	return l.apply(ctx, userID, func(used int) (int, error) {
		used += delta
		if used < 0 {
			used = 0
		}
		if used > l.limits.DailyLimit {
			used = l.limits.DailyLimit
		}
		return used, nil
	})
}

// Status reports the user's remaining allowance without charging anything.
// The date rollover still applies so a new day reads as a full allowance.
func (l *Ledger) Status(ctx context.Context, userID string) (Snapshot, error) {
	return l.apply(ctx, userID, func(used int) (int, error) {
		return used, nil
	})
}

// apply runs one read-modify-write round per attempt: load the record, reset
// usage if the UTC date rolled over, let mutate produce the new usage count,
// and persist with a conditional write. On ErrConflict the whole round
// re-runs against fresh state, so no update is ever lost.
func (l *Ledger) apply(ctx context.Context, userID string, mutate func(used int) (int, error)) (Snapshot, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		rec, err := l.store.GetUser(ctx, userID)
		if err != nil {
			return Snapshot{}, err
		}

		today := DateOf(l.now())
		if rec.LastRequestDate != today {
			rec.CreditsUsedToday = 0
			rec.LastRequestDate = today
		}

		newUsed, mutateErr := mutate(rec.CreditsUsedToday)
		rec.CreditsUsedToday = newUsed

		// The rollover reset (and, on success, the new charge) is persisted
		// in the same conditional write.
		if err := l.store.SaveUser(ctx, rec); err != nil {
			if errors.Is(err, ErrConflict) {
				slog.Debug("credits: save conflict, retrying", "user_id", userID, "attempt", attempt+1)
				continue
			}
			return Snapshot{}, err
		}

		if mutateErr != nil {
			return Snapshot{}, mutateErr
		}
		return Snapshot{
			Remaining: l.limits.DailyLimit - rec.CreditsUsedToday,
			Limit:     l.limits.DailyLimit,
		}, nil
	}
	return Snapshot{}, fmt.Errorf("updating usage for %s: %w", userID, ErrRetryExhausted)
}
