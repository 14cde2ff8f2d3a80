package session

import (
	"context"
	"encoding/json"

	"storefront-svc/models"
)

// RequestContext is the per-request identity handed to services in place of
// the HTTP request.
type RequestContext struct {
	UserID    *int64
	SessionID string
	Data      Data
}

func (rc RequestContext) Authenticated() bool {
	return rc.UserID != nil
}

// Owner scopes carts: an authenticated user owns the cart regardless of the
// session it is used from.
func (rc RequestContext) Owner() models.Owner {
	if rc.UserID != nil {
		return models.UserOwner(*rc.UserID)
	}
	return models.SessionOwner(rc.SessionID)
}

const flashKey = "flash"

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
	FlashInfo    FlashLevel = "info"
)

type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

// AddFlash queues a one-shot message shown on the next page render.
func (rc RequestContext) AddFlash(ctx context.Context, level FlashLevel, message string) error {
	if rc.Data == nil {
		return nil
	}
	data, err := json.Marshal(Flash{Level: level, Message: message})
	if err != nil {
		return err
	}
	return rc.Data.Push(ctx, flashKey, string(data))
}

// Flashes returns and clears the pending messages.
func (rc RequestContext) Flashes(ctx context.Context) ([]Flash, error) {
	if rc.Data == nil {
		return []Flash{}, nil
	}
	raw, err := rc.Data.Drain(ctx, flashKey)
	if err != nil {
		return nil, err
	}
	flashes := make([]Flash, 0, len(raw))
	for _, r := range raw {
		var f Flash
		if err := json.Unmarshal([]byte(r), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
