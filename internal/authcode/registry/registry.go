// Package registry holds the process-wide mapping of outstanding
// authorization codes to the users awaiting confirmation.
package registry

import (
	"context"
	"time"

	"kiosk/internal/authcode/models"
)

// Generate produces a candidate code. The registry retries it while the
// candidate collides with an active entry, so the function must be cheap and
// side-effect free.
type Generate func() models.Code

// Store is the active-code registry. A code present in the store denotes
// exactly one outstanding authorization; Issue guarantees uniqueness among
// active entries. Absence is reported as sentinel.ErrNotFound and expiry as
// sentinel.ErrExpired, never as a panic: wrong and stale codes are ordinary
// outcomes of this flow.
type Store interface {
	// Issue generates a code, retrying until it finds one not currently
	// active, and records code -> user with the issuance time.
	Issue(ctx context.Context, userID models.UserID) (models.Code, error)

	// Lookup probes for an active entry without consuming it.
	Lookup(ctx context.Context, code models.Code) (models.Pending, error)

	// Remove deletes the entry if present and reports whether it existed.
	// Used on normal consumption and on explicit abandonment alike.
	Remove(ctx context.Context, code models.Code) (bool, error)

	// Active snapshots the current code -> user mapping. Diagnostic surface;
	// the transport layer keeps it behind admin auth.
	Active(ctx context.Context) (map[models.Code]models.UserID, error)

	// Sweep evicts entries older than the TTL and returns how many it
	// removed. Backends with native expiry may make this a no-op.
	Sweep(ctx context.Context, now time.Time) int
}
