package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStarted  = "session.started"
	SessionCleared  = "session.cleared"
	AccountLocked   = "account.locked"
	AccountUnlocked = "account.unlocked"
	ViewChanged     = "view.changed"
)

func NewSessionStartedEvent(userID int64, email string) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      SessionStarted,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"user_id": userID,
			"email":   email,
		},
	}
}

func NewSessionClearedEvent() Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      SessionCleared,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{},
	}
}

func NewAccountLockedEvent(email string, cooldownSeconds int) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      AccountLocked,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"email":            email,
			"cooldown_seconds": cooldownSeconds,
		},
	}
}

func NewAccountUnlockedEvent(email string) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      AccountUnlocked,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"email": email,
		},
	}
}

func NewViewChangedEvent(view string) Event {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      ViewChanged,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"view": view,
		},
	}
}
