package domain

import "time"

// Entity provides identity and timestamps shared by all persisted domain types.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (e *Entity) Touch() {
	e.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (e *Entity) InitTimestamps() {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
}
