package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"equipment-maintenance-backend/internal/model"
	"equipment-maintenance-backend/internal/store"
)

// Ticket ID allocation policy.
const (
	idPrefix      = "MTN"
	idSeed        = 3341
	maxIDAttempts = 10
)

// ErrIDExhausted is returned when a unique ticket ID could not be allocated
// within the bounded retry window. No ticket is created in that case.
var ErrIDExhausted = errors.New("could not allocate unique maintenance id")

// allocateAndInsert proposes last+1 (or the seed when no ticket exists) and
// attempts the insert, re-reading the current maximum on every collision.
// Concurrent schedulers racing on the same next ID are resolved by the
// storage layer's uniqueness constraint.
func (s *Service) allocateAndInsert(ctx context.Context, t *model.MaintenanceTicket) error {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		last, found, err := s.store.MaxTicketNumber(ctx, idPrefix)
		if err != nil {
			return err
		}
		next := idSeed
		if found {
			next = last + 1
		}
		t.MaintenanceID = fmt.Sprintf("%s%d", idPrefix, next)

		err = s.store.CreateTicket(ctx, t)
		if errors.Is(err, store.ErrDuplicateID) {
			continue
		}
		return err
	}
	return ErrIDExhausted
}
