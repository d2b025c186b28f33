package interest

import (
	"time"

	"github.com/muthuraman/pawnbook/pkg/models"
)

// ResolveStatus derives the status to display for a loan from its dates and
// the last persisted status. It is recomputed on every read; the stored
// status column only matters as a one-way ratchet toward closed.
//
// A missing start date or validity window resolves to active rather than
// failing. The due-date boundary is inclusive: a loan is overdue on the day
// its validity window ends.
func ResolveStatus(startDate time.Time, validityMonths int, persisted models.LoanStatus, now time.Time) models.LoanStatus {
	if persisted == models.StatusClosed {
		return models.StatusClosed
	}
	if startDate.IsZero() || validityMonths <= 0 {
		return models.StatusActive
	}
	dueDate := startDate.AddDate(0, validityMonths, 0)
	if !now.Before(dueDate) {
		return models.StatusOverdue
	}
	return models.StatusActive
}
