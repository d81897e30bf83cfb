package auction

import (
	"fmt"
	"time"

	"github.com/satonic/auction-api/internal/apperror"
	"github.com/satonic/auction-api/internal/models"
)

// DefaultDuration is how long an auction stays open after publishing
const DefaultDuration = 72 * time.Hour

// Action is an actor-triggered change to an item
type Action string

const (
	ActionPublish    Action = "publish"
	ActionClose      Action = "close"
	ActionForceClose Action = "force-close"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
)

type rule struct {
	from      models.ItemStatus
	to        models.ItemStatus
	adminOnly bool
}

var rules = map[Action]rule{
	ActionPublish:    {from: models.ItemStatusDraft, to: models.ItemStatusOpen},
	ActionClose:      {from: models.ItemStatusOpen, to: models.ItemStatusClosed},
	ActionForceClose: {from: models.ItemStatusOpen, to: models.ItemStatusClosed, adminOnly: true},
	ActionUpdate:     {from: models.ItemStatusDraft, to: models.ItemStatusDraft},
	ActionDelete:     {from: models.ItemStatusDraft},
}

// Authorize checks that actor may perform action on item in its current
// state. The actor check runs before the state check.
func Authorize(item *models.Item, actor models.Actor, action Action) error {
	r, ok := rules[action]
	if !ok {
		return fmt.Errorf("unknown item action %q", action)
	}

	if r.adminOnly {
		if !actor.IsAdmin() {
			return apperror.Forbidden("admin capability required")
		}
	} else if item.SellerID != actor.ID {
		return apperror.Forbidden(fmt.Sprintf("only the seller may %s this item", action))
	}

	if item.Status != r.from {
		return apperror.StateConflict(fmt.Sprintf("%s requires status %s", action, r.from)).
			With("status", item.Status).
			With("required_status", r.from)
	}

	return nil
}

// Apply authorizes action and moves item to the rule's target state.
// Publishing stamps starts_at and ends_at together.
func Apply(item *models.Item, actor models.Actor, action Action, now time.Time, duration time.Duration) error {
	if err := Authorize(item, actor, action); err != nil {
		return err
	}

	r := rules[action]
	if action == ActionPublish {
		if duration <= 0 {
			duration = DefaultDuration
		}
		startsAt := now
		endsAt := now.Add(duration)
		item.StartsAt = &startsAt
		item.EndsAt = &endsAt
	}
	if r.to != "" {
		item.Status = r.to
	}
	item.UpdatedAt = now

	return nil
}
