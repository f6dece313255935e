package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/engine"
	"github.com/roach88/cadence/internal/schedule"
)

// Repository is a mock for engine.Repository.
//
// InTx is mocked as InTx(ctx) returning (engine.Tx, error); on success the
// callback runs against the returned Tx.
type Repository struct {
	mock.Mock
}

func items(args mock.Arguments) ([]actionitem.ActionItem, error) {
	if list, ok := args.Get(0).([]actionitem.ActionItem); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Repository) FindDueForGeneration(ctx context.Context, name schedule.Name, effective time.Time) ([]actionitem.ActionItem, error) {
	return items(m.Called(ctx, name, effective))
}

func (m *Repository) FindDueForBackfill(ctx context.Context, name schedule.Name, candidates []time.Time) ([]actionitem.ActionItem, error) {
	return items(m.Called(ctx, name, candidates))
}

func (m *Repository) FindForPastDueAlert(ctx context.Context, q engine.PastDueQuery) ([]actionitem.ActionItem, error) {
	return items(m.Called(ctx, q))
}

func (m *Repository) FindForFutureDueAlert(ctx context.Context, name schedule.Name, dates []time.Time) ([]actionitem.ActionItem, error) {
	return items(m.Called(ctx, name, dates))
}

func (m *Repository) InTx(ctx context.Context, fn func(engine.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return err
	}
	tx, _ := args.Get(0).(engine.Tx)
	return fn(tx)
}

// Tx is a mock for engine.Tx.
type Tx struct {
	mock.Mock
}

func (m *Tx) CreateActionItem(ctx context.Context, item actionitem.ActionItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *Tx) CopyAssignees(ctx context.Context, srcID, dstID string) error {
	args := m.Called(ctx, srcID, dstID)
	return args.Error(0)
}

func (m *Tx) CopyControls(ctx context.Context, srcID, dstID string) error {
	args := m.Called(ctx, srcID, dstID)
	return args.Error(0)
}

func (m *Tx) ControlIDs(ctx context.Context, itemID string) ([]string, error) {
	args := m.Called(ctx, itemID)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Tx) BulkSetHasNewActionItems(ctx context.Context, controlIDs []string) error {
	args := m.Called(ctx, controlIDs)
	return args.Error(0)
}

func (m *Tx) MarkReviewed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Directory is a mock for engine.Directory.
type Directory struct {
	mock.Mock
}

func (m *Directory) User(ctx context.Context, id string) (actionitem.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(actionitem.User)
	return u, args.Error(1)
}

// AlertEmitter is a mock for engine.AlertEmitter.
type AlertEmitter struct {
	mock.Mock
}

func (m *AlertEmitter) Emit(ctx context.Context, alert actionitem.Alert) (bool, error) {
	args := m.Called(ctx, alert)
	return args.Bool(0), args.Error(1)
}
