package credits

import "context"

// UserStore is the durable per-user usage store the ledger mutates.
//
// SaveUser must be a conditional write: it succeeds only if the stored
// record still carries the version the caller read, and returns ErrConflict
// otherwise. This is what makes Reserve/Reconcile safe across processes;
// an in-process mutex alone would not survive horizontal scaling.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*UsageRecord, error)
	SaveUser(ctx context.Context, rec *UsageRecord) error
}
