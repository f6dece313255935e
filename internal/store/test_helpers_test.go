package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/schedule"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// seedBasics writes two users and two controls.
func seedBasics(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []actionitem.User{
		{ID: "u-1", Name: "Ada", Email: "ada@example.com", OrganizationID: "org-1"},
		{ID: "u-2", Name: "Grace", Email: "grace@example.com", OrganizationID: "org-2"},
	} {
		if err := s.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	for _, c := range []actionitem.Control{
		{ID: "c-1", Name: "Access review", OrganizationID: "org-1"},
		{ID: "c-2", Name: "Backups", OrganizationID: "org-1"},
	} {
		if err := s.CreateControl(ctx, c); err != nil {
			t.Fatalf("CreateControl() failed: %v", err)
		}
	}
}

// createTestItem builds a NEW control item with minimal required fields.
func createTestItem(id string, sched schedule.Name, due string) actionitem.ActionItem {
	return actionitem.ActionItem{
		ID:                id,
		Name:              "Item " + id,
		Status:            actionitem.StatusNew,
		DueDate:           day(due),
		IsRecurrent:       sched != schedule.Immediate,
		RecurrentSchedule: sched,
		Metadata: actionitem.Metadata{
			Type:           actionitem.TypeControl,
			ReferenceID:    "ref-" + id,
			OrganizationID: "org-1",
		},
		AssigneeIDs: []string{"u-1"},
		ControlIDs:  []string{"c-1"},
	}
}

func mustCreate(t *testing.T, s *Store, items ...actionitem.ActionItem) {
	t.Helper()
	for _, item := range items {
		if err := s.CreateActionItem(context.Background(), item); err != nil {
			t.Fatalf("CreateActionItem(%s) failed: %v", item.ID, err)
		}
	}
}

func ids(items []actionitem.ActionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
