package handler

import (
	"context"
	"time"

	"github.com/khlin/ticket-registration/internal/metrics"
	"github.com/khlin/ticket-registration/internal/notifier"
	"github.com/khlin/ticket-registration/internal/queue"
	"github.com/khlin/ticket-registration/internal/repository"
	"github.com/khlin/ticket-registration/internal/service"
)

// AttendeeStore is the slice of the repository the handlers need. Declared
// here so handler tests can substitute a mock; *repository.AttendeeRepo is
// the production implementation.
type AttendeeStore interface {
	Create(ctx context.Context, a *repository.Attendee) error
	GetByID(ctx context.Context, id int64) (*repository.Attendee, error)
	GetBySerial(ctx context.Context, serial string) (*repository.Attendee, error)
	Update(ctx context.Context, id int64, f repository.UpdateFields) (int64, error)
	Pay(ctx context.Context, id int64, serial string) (int64, error)
	CancelPay(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	Search(ctx context.Context, q string, page, limit int) ([]repository.Attendee, error)
	Stats(ctx context.Context) (repository.Stats, error)
	SerialExists(ctx context.Context, serial string, excludeID int64) (bool, int64, error)
	SetVerified(ctx context.Context, serial string, verified bool) (int64, error)
	UpsertBatch(ctx context.Context, rows []repository.ImportRow) (inserted, updated int, err error)
}

// Mutations bundles everything that runs after a successful store mutation:
// the browser broadcast, the broker event and the mutation counter. Handlers
// call Fire exactly once per mutating request, after commit.
type Mutations struct {
	Notifier  *notifier.Notifier
	Publisher *service.Publisher
}

// Fire broadcasts the data-changed signal and publishes the mutation event.
// Broker publishing is fire and forget on a detached context so a slow
// broker never holds up the HTTP response.
func (m *Mutations) Fire(ctx context.Context, ev queue.AttendeeChangedEvent) {
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	metrics.RecordMutation(ev.Action)
	if m.Notifier != nil {
		m.Notifier.Publish(ctx)
	}
	if m.Publisher != nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = m.Publisher.Publish(pubCtx, ev)
		}()
	}
}
