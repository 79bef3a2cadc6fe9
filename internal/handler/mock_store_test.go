package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/khlin/ticket-registration/internal/notifier"
	"github.com/khlin/ticket-registration/internal/repository"
)

// MockStore mocks the AttendeeStore interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, a *repository.Attendee) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) GetByID(ctx context.Context, id int64) (*repository.Attendee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Attendee), args.Error(1)
}

func (m *MockStore) GetBySerial(ctx context.Context, serial string) (*repository.Attendee, error) {
	args := m.Called(ctx, serial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Attendee), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, id int64, f repository.UpdateFields) (int64, error) {
	args := m.Called(ctx, id, f)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) Pay(ctx context.Context, id int64, serial string) (int64, error) {
	args := m.Called(ctx, id, serial)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) CancelPay(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) Search(ctx context.Context, q string, page, limit int) ([]repository.Attendee, error) {
	args := m.Called(ctx, q, page, limit)
	return args.Get(0).([]repository.Attendee), args.Error(1)
}

func (m *MockStore) Stats(ctx context.Context) (repository.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(repository.Stats), args.Error(1)
}

func (m *MockStore) SerialExists(ctx context.Context, serial string, excludeID int64) (bool, int64, error) {
	args := m.Called(ctx, serial, excludeID)
	return args.Bool(0), int64(args.Int(1)), args.Error(2)
}

func (m *MockStore) SetVerified(ctx context.Context, serial string, verified bool) (int64, error) {
	args := m.Called(ctx, serial, verified)
	return int64(args.Int(0)), args.Error(1)
}

func (m *MockStore) UpsertBatch(ctx context.Context, rows []repository.ImportRow) (int, int, error) {
	args := m.Called(ctx, rows)
	return args.Int(0), args.Int(1), args.Error(2)
}

// testMutations returns a Mutations with a local-only notifier and no broker,
// enough to make Fire a harmless no-op in handler tests.
func testMutations() *Mutations {
	return &Mutations{Notifier: notifier.New(nil, nil)}
}
