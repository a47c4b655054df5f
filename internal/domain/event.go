package domain

import "time"

// ChangeAction describes what the sync did with a station.
type ChangeAction string

const (
	ActionCreated ChangeAction = "created"
	ActionUpdated ChangeAction = "updated"
	ActionSkipped ChangeAction = "skipped"
)

// ChangeEvent is published for every station the sync wrote or sent to triage.
type ChangeEvent struct {
	StationID  int          `json:"station_id"`
	ItemID     string       `json:"item_id,omitempty"`
	Action     ChangeAction `json:"action"`
	Reason     string       `json:"reason,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewChangeEvent stamps an event with the package clock.
func NewChangeEvent(stationID int, itemID string, action ChangeAction, reason string) ChangeEvent {
	return ChangeEvent{
		StationID:  stationID,
		ItemID:     itemID,
		Action:     action,
		Reason:     reason,
		OccurredAt: clock.Now().UTC(),
	}
}
