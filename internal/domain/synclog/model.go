package synclog

import "time"

// Status of one sync attempt. Monotonic toward a terminal state per attempt:
// PENDING may become SYNCED or FAILED, never the reverse.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSynced  Status = "SYNCED"
	StatusFailed  Status = "FAILED"
)

type Direction string

const (
	DirectionUp   Direction = "UP"   // local canonical -> online projection
	DirectionDown Direction = "DOWN" // online canonical -> local projection
)

// Log is one audit row for a cross-store write. Append-only; RetryCount is
// only ever changed through the store's atomic increment.
type Log struct {
	ID           string    `json:"syncId"`
	EntityID     string    `json:"entityId"`
	EntityType   string    `json:"entityType"`
	Direction    Direction `json:"syncDirection"`
	Status       Status    `json:"syncStatus"`
	RetryCount   int       `json:"retryCount"`
	ErrorReason  string    `json:"errorMessage,omitempty"`
	DispatchedAt time.Time `json:"dispatchedAt,omitempty"`
	SyncedAt     time.Time `json:"syncedAt,omitempty"`
	FailedAt     time.Time `json:"failedAt,omitempty"`
}
