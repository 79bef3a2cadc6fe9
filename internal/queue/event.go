// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit trail.
package queue

// AttendeeChangedEvent is published after every successful store mutation.
// It carries just enough for downstream consumers (audit log, analytics) to
// work without querying the primary database. The shared-secret console has
// no per-operator identity, so the audit trail records actions, not actors.
type AttendeeChangedEvent struct {
	Action     string  `json:"action"` // create|update|delete|pay|cancel_pay|checkin|uncheckin|import
	AttendeeID int64   `json:"attendee_id,omitempty"`
	Serial     string  `json:"serial,omitempty"`
	Inserted   int     `json:"inserted,omitempty"`
	Updated    int     `json:"updated,omitempty"`
	AmountDue  float64 `json:"amount_due,omitempty"`
	OccurredAt string  `json:"occurred_at"`
}
