package engine

import (
	"context"
	"fmt"

	"quiz-session-engine/internal/domain"
)

// ActionType names a user intent understood by Dispatch.
type ActionType string

const (
	ActionLoad    ActionType = "load"
	ActionStart   ActionType = "start"
	ActionSelect  ActionType = "select"
	ActionSubmit  ActionType = "submit"
	ActionNext    ActionType = "next"
	ActionRestart ActionType = "restart"
)

// Action is a message from a rendering layer.
type Action struct {
	Type     ActionType       `json:"type"`
	Category string           `json:"category,omitempty"`
	Key      domain.OptionKey `json:"key,omitempty"`
}

// Dispatch applies an action. Rendering layers only talk to the session
// through Dispatch and Snapshot/Subscribe.
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	switch action.Type {
	case ActionLoad:
		return c.Load(ctx, action.Category)
	case ActionStart:
		return c.Start()
	case ActionSelect:
		return c.Select(action.Key)
	case ActionSubmit:
		_, err := c.Submit()
		return err
	case ActionNext:
		return c.Advance(ctx)
	case ActionRestart:
		return c.Restart(ctx)
	default:
		return fmt.Errorf("unsupported action %q", action.Type)
	}
}
