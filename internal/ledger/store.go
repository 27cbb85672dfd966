package ledger

import (
	"context"
	"errors"

	"github.com/Dan9191/ledger-service/internal/models"
)

// ErrConflict is returned by Store.Save when the overview changed under the
// writer's feet (version token mismatch).
var ErrConflict = errors.New("overview version conflict")

// Store persists the per-user ledger overview with optimistic concurrency
// and keeps the classified-event audit trail.
type Store interface {
	// LoadOverview returns the user's overview and its version token. A user
	// with no overview yet gets a zero overview with version 0.
	LoadOverview(ctx context.Context, userID int64) (models.LedgerOverview, int64, error)

	// SaveOverview writes the overview on the condition that its stored
	// version still equals expectedVersion, and returns ErrConflict
	// otherwise. Version 0 means "create".
	SaveOverview(ctx context.Context, userID int64, overview models.LedgerOverview, expectedVersion int64) error

	// AppendEvents records the events in submission order for audit/history.
	AppendEvents(ctx context.Context, userID int64, events []models.ClassifiedEvent) error
}
