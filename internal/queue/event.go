// Package queue defines message payloads exchanged over the message broker.
package queue

// EventType discriminates notification payloads on the shared queue.
type EventType string

const (
	EventRegistrationSubmitted EventType = "registration.submitted"
	EventPasswordReset         EventType = "password.reset"
)

// NotificationEvent is published for anything the email worker should act
// on. It carries enough information for downstream consumers to log or
// notify without querying the primary database.
type NotificationEvent struct {
	Type       EventType `json:"type"`
	UserID     int64     `json:"user_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Country    string    `json:"country,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	ResetCode  string    `json:"reset_code,omitempty"`
	OccurredAt string    `json:"occurred_at"`
}
