package timer

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/adanyl0v/go-reminders/internal/models"
)

type SortMode string

const (
	SortRemainingAsc  SortMode = "remaining-asc"
	SortRemainingDesc SortMode = "remaining-desc"
	SortTimeAsc       SortMode = "time-asc"
	SortTimeDesc      SortMode = "time-desc"
	SortCreatedAsc    SortMode = "created-asc"
	SortCreatedDesc   SortMode = "created-desc"
	SortManual        SortMode = "manual"

	DefaultSortMode = SortRemainingAsc
)

func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return DefaultSortMode, nil
	}
	m := SortMode(s)
	if m.compare() == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortMode, s)
	}
	return m, nil
}

func (m SortMode) compare() func(a, b models.Reminder) int {
	switch m {
	case SortRemainingAsc:
		return func(a, b models.Reminder) int { return cmp.Compare(a.RemainingSeconds, b.RemainingSeconds) }
	case SortRemainingDesc:
		return func(a, b models.Reminder) int { return cmp.Compare(b.RemainingSeconds, a.RemainingSeconds) }
	case SortTimeAsc:
		return func(a, b models.Reminder) int { return cmp.Compare(a.TotalSeconds, b.TotalSeconds) }
	case SortTimeDesc:
		return func(a, b models.Reminder) int { return cmp.Compare(b.TotalSeconds, a.TotalSeconds) }
	case SortCreatedAsc:
		return func(a, b models.Reminder) int { return cmp.Compare(a.CreatedAt, b.CreatedAt) }
	case SortCreatedDesc:
		return func(a, b models.Reminder) int { return cmp.Compare(b.CreatedAt, a.CreatedAt) }
	case SortManual:
		return func(a, b models.Reminder) int { return cmp.Compare(a.Order, b.Order) }
	default:
		return nil
	}
}

type Group int

const (
	GroupCompleted Group = iota
	GroupPinned
	GroupActive
)

// GroupOf returns the display group r belongs to.
func GroupOf(r *models.Reminder) Group {
	switch {
	case r.IsCompleted:
		return GroupCompleted
	case r.Pinned:
		return GroupPinned
	default:
		return GroupActive
	}
}

// Groups is an owner's reminders partitioned by completion and pin state,
// each slice ordered independently.
type Groups struct {
	PinnedCompleted   []models.Reminder
	UnpinnedCompleted []models.Reminder
	PinnedActive      []models.Reminder
	UnpinnedActive    []models.Reminder
}

// Completed returns the completed group: pinned first, then unpinned.
func (g Groups) Completed() []models.Reminder {
	out := make([]models.Reminder, 0, len(g.PinnedCompleted)+len(g.UnpinnedCompleted))
	out = append(out, g.PinnedCompleted...)
	return append(out, g.UnpinnedCompleted...)
}

// Ordered flattens the groups in display order: completed, pinned active,
// unpinned active.
func (g Groups) Ordered() []models.Reminder {
	out := g.Completed()
	out = append(out, g.PinnedActive...)
	return append(out, g.UnpinnedActive...)
}

// Arrange partitions list and orders every group by mode. Ties keep the
// input order. An unknown mode falls back to the default one.
func Arrange(list []models.Reminder, mode SortMode) Groups {
	var g Groups
	for _, r := range list {
		switch {
		case r.IsCompleted && r.Pinned:
			g.PinnedCompleted = append(g.PinnedCompleted, r)
		case r.IsCompleted:
			g.UnpinnedCompleted = append(g.UnpinnedCompleted, r)
		case r.Pinned:
			g.PinnedActive = append(g.PinnedActive, r)
		default:
			g.UnpinnedActive = append(g.UnpinnedActive, r)
		}
	}

	compare := mode.compare()
	if compare == nil {
		compare = DefaultSortMode.compare()
	}
	slices.SortStableFunc(g.PinnedCompleted, compare)
	slices.SortStableFunc(g.UnpinnedCompleted, compare)
	slices.SortStableFunc(g.PinnedActive, compare)
	slices.SortStableFunc(g.UnpinnedActive, compare)
	return g
}

type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Reassign numbers the reminders of one group 0..n-1 in their current order.
func Reassign(group []models.Reminder) []OrderUpdate {
	updates := make([]OrderUpdate, len(group))
	for i, r := range group {
		updates[i] = OrderUpdate{ID: r.ID, Order: i}
	}
	return updates
}

// Move returns a copy of group with the element at from moved to to. Moving
// between pinned and unpinned reminders is not a reorder and returns false.
func Move(group []models.Reminder, from, to int) ([]models.Reminder, bool) {
	if from < 0 || from >= len(group) || to < 0 || to >= len(group) || from == to {
		return nil, false
	}
	if group[from].Pinned != group[to].Pinned {
		return nil, false
	}

	moved := group[from]
	out := slices.Delete(slices.Clone(group), from, from+1)
	return slices.Insert(out, to, moved), true
}
