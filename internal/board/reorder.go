package board

import (
	"context"
	"fmt"

	"github.com/adanyl0v/go-reminders/internal/models"
	"github.com/adanyl0v/go-reminders/internal/timer"
	"github.com/adanyl0v/go-reminders/pkg/client"
)

// Move reorders the pinned or unpinned active group as displayed: the
// reminder at position from is moved to position to. The new order is
// applied locally before the server confirms it and the sort mode switches
// to manual. If the server rejects the whole request the previous order
// values and mode are restored, leaving anything else that changed in the
// meantime alone; if only some updates fail the board reloads.
func (b *Board) Move(ctx context.Context, pinned bool, from, to int) error {
	var (
		updates  []timer.OrderUpdate
		previous map[string]int
		prevMode timer.SortMode
		ok       bool
	)
	err := b.do(ctx, func(st *state) {
		groups := timer.Arrange(st.reminders, st.mode)
		group := groups.UnpinnedActive
		if pinned {
			group = groups.PinnedActive
		}

		var moved []models.Reminder
		moved, ok = timer.Move(group, from, to)
		if !ok {
			return
		}

		prevMode = st.mode
		updates = timer.Reassign(moved)
		previous = make(map[string]int, len(updates))
		for _, u := range updates {
			if i := st.index(u.ID); i >= 0 {
				previous[u.ID] = st.reminders[i].Order
				st.reminders[i].Order = u.Order
			}
		}
		st.mode = timer.SortManual
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d -> %d", ErrInvalidMove, from, to)
	}

	body := make([]client.OrderUpdate, len(updates))
	for i, u := range updates {
		body[i] = client.OrderUpdate{ID: u.ID, Order: u.Order}
	}

	result, err := b.api.Reorder(ctx, body)
	if err != nil {
		b.logger.Warn().
			Err(err).
			Msg("reorder rejected, restoring previous order")
		revertErr := b.do(ctx, func(st *state) {
			for id, order := range previous {
				if i := st.index(id); i >= 0 {
					st.reminders[i].Order = order
				}
			}
			st.mode = prevMode
		})
		if revertErr != nil {
			return revertErr
		}
		return fmt.Errorf("failed to reorder reminders: %w", err)
	}

	if len(result.Failed) > 0 {
		b.logger.Warn().
			Strs("failed", result.Failed).
			Msg("reorder partially applied, reloading")
		return b.Load(ctx)
	}
	return nil
}
