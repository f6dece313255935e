package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cadence/internal/actionitem"
	"github.com/roach88/cadence/internal/calendar"
	"github.com/roach88/cadence/internal/schedule"
)

// Fixture is a YAML seed file: users, controls and action items loaded in
// one transaction.
type Fixture struct {
	Users       []actionitem.User    `yaml:"users"`
	Controls    []actionitem.Control `yaml:"controls"`
	ActionItems []FixtureItem        `yaml:"action_items"`
}

// FixtureItem is an action item as written in a seed file. Dates are
// YYYY-MM-DD days in the store's reference zone or RFC 3339 instants.
type FixtureItem struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	Status           string   `yaml:"status"`
	DueDate          string   `yaml:"due_date"`
	CompletionDate   string   `yaml:"completion_date"`
	Schedule         string   `yaml:"schedule"`
	IsRequired       bool     `yaml:"is_required"`
	Parent           string   `yaml:"parent"`
	Type             string   `yaml:"type"`
	ReferenceID      string   `yaml:"reference_id"`
	OrganizationID   string   `yaml:"organization_id"`
	IsReviewed       bool     `yaml:"is_reviewed"`
	RequiredEvidence string   `yaml:"required_evidence"`
	Assignees        []string `yaml:"assignees"`
	Controls         []string `yaml:"controls"`
}

// LoadFixture decodes a seed file. Unknown keys are rejected.
func LoadFixture(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return Fixture{}, nil
		}
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// ActionItem converts the fixture entry. An empty type defaults to control.
func (fi FixtureItem) ActionItem(loc *time.Location) (actionitem.ActionItem, error) {
	sched, err := schedule.Parse(fi.Schedule)
	if err != nil {
		return actionitem.ActionItem{}, fmt.Errorf("item %s: %w", fi.ID, err)
	}
	due, err := parseFixtureTime(fi.DueDate, loc)
	if err != nil {
		return actionitem.ActionItem{}, fmt.Errorf("item %s due_date: %w", fi.ID, err)
	}

	item := actionitem.ActionItem{
		ID:                fi.ID,
		Name:              fi.Name,
		Description:       fi.Description,
		Status:            actionitem.Status(fi.Status),
		DueDate:           due,
		RecurrentSchedule: sched,
		IsRequired:        fi.IsRequired,
		Metadata: actionitem.Metadata{
			Type:             actionitem.Type(fi.Type),
			ReferenceID:      fi.ReferenceID,
			OrganizationID:   fi.OrganizationID,
			IsReviewed:       fi.IsReviewed,
			RequiredEvidence: actionitem.RequiredEvidence(fi.RequiredEvidence),
		},
		AssigneeIDs: fi.Assignees,
		ControlIDs:  fi.Controls,
	}
	if item.Metadata.Type == "" {
		item.Metadata.Type = actionitem.TypeControl
	}
	if item.Name == "" {
		item.Name = fi.ID
	}
	if fi.Parent != "" {
		parent := fi.Parent
		item.ParentActionItemID = &parent
	}
	if fi.CompletionDate != "" {
		completed, err := parseFixtureTime(fi.CompletionDate, loc)
		if err != nil {
			return actionitem.ActionItem{}, fmt.Errorf("item %s completion_date: %w", fi.ID, err)
		}
		item.CompletionDate = &completed
	}
	item.Normalize()
	return item, nil
}

func parseFixtureTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	return calendar.ParseDay(s, loc)
}

// Seed writes a fixture in one transaction. Users and controls are upserted;
// action items must be new.
func (s *Store) Seed(ctx context.Context, f Fixture) error {
	return s.inTx(ctx, func(t *tx) error {
		for _, u := range f.Users {
			if err := upsertUser(ctx, t.q, u); err != nil {
				return err
			}
		}
		for _, c := range f.Controls {
			if err := upsertControl(ctx, t.q, c); err != nil {
				return err
			}
		}
		for _, fi := range f.ActionItems {
			item, err := fi.ActionItem(t.loc)
			if err != nil {
				return err
			}
			if err := t.createWithRelations(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
}
