package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventName identifies a domain event published to the notification stream.
type EventName string

const (
	EventUserRegistered          EventName = "UserRegistered"
	EventUserLoggedIn            EventName = "UserLoggedIn"
	EventNewGoogleUserRegistered EventName = "NewGoogleUserRegistered"
	EventUserLoggedInWithGoogle  EventName = "UserLoggedInWithGoogle"
	EventNewGitHubUserRegistered EventName = "NewGitHubUserRegistered"
	EventUserLoggedInWithGitHub  EventName = "UserLoggedInWithGitHub"
)

// RegisteredEvent returns the event emitted when an account of kind k is created.
func RegisteredEvent(k AccountKind) EventName {
	switch k {
	case KindGoogle:
		return EventNewGoogleUserRegistered
	case KindGitHub:
		return EventNewGitHubUserRegistered
	default:
		return EventUserRegistered
	}
}

// LoggedInEvent returns the event emitted when an existing account of kind k logs in.
func LoggedInEvent(k AccountKind) EventName {
	switch k {
	case KindGoogle:
		return EventUserLoggedInWithGoogle
	case KindGitHub:
		return EventUserLoggedInWithGitHub
	default:
		return EventUserLoggedIn
	}
}

// IdentityEvent is the payload carried for every identity event.
type IdentityEvent struct {
	Name      EventName
	Email     string
	Timestamp time.Time
}

// ResourceEventType names a resource mutation pushed to live clients.
type ResourceEventType string

const (
	ProjectCreated   ResourceEventType = "ProjectCreated"
	ProjectUpdated   ResourceEventType = "ProjectUpdated"
	ProjectDeleted   ResourceEventType = "ProjectDeleted"
	TaskCreated      ResourceEventType = "TaskCreated"
	TimesheetCreated ResourceEventType = "TimesheetCreated"
)

// ResourceEvent describes a committed resource mutation.
type ResourceEvent struct {
	Type       ResourceEventType `json:"type"`
	OwnerID    uuid.UUID         `json:"owner_account_id"`
	ResourceID uuid.UUID         `json:"resource_id"`
	Payload    any               `json:"payload,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
