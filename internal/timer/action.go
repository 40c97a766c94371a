package timer

import (
	"fmt"
	"strings"

	"github.com/adanyl0v/go-reminders/internal/models"
)

type ActionKind string

const (
	ActionToggle   ActionKind = "toggle"
	ActionPostpone ActionKind = "postpone"
	ActionComplete ActionKind = "complete"
	ActionPin      ActionKind = "pin"
	ActionUnpin    ActionKind = "unpin"
	ActionUpdate   ActionKind = "update"
)

// Patch carries the fields an update may change. Timing fields are not
// representable here; they only move through postpone.
type Patch struct {
	Title       *string
	Category    *string
	UpgradeType *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Category == nil && p.UpgradeType == nil
}

// Action is a validated user transition. Build it with NewAction.
type Action struct {
	Kind  ActionKind
	Patch Patch
}

// NewAction validates kind and patch together: only update may carry a
// patch, and an update must carry at least one valid field.
func NewAction(kind string, patch Patch) (Action, error) {
	k := ActionKind(kind)
	switch k {
	case ActionToggle, ActionPostpone, ActionComplete, ActionPin, ActionUnpin:
		if !patch.IsEmpty() {
			return Action{}, fmt.Errorf("%w: %s does not accept fields", ErrInvalidPatch, k)
		}
		return Action{Kind: k}, nil
	case ActionUpdate:
		if patch.IsEmpty() {
			return Action{}, fmt.Errorf("%w: nothing to update", ErrInvalidPatch)
		}
		if patch.Category != nil && strings.TrimSpace(*patch.Category) == "" {
			return Action{}, ErrInvalidCategory
		}
		if patch.UpgradeType != nil && !models.IsValidUpgradeType(*patch.UpgradeType) {
			return Action{}, fmt.Errorf("%w: %q", ErrInvalidUpgrade, *patch.UpgradeType)
		}
		return Action{Kind: k, Patch: patch}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, kind)
	}
}
