// Package notification carries appointment lifecycle events to the outside
// world. Delivery is best effort and never feeds back into the caller.
package notification

import (
	"context"
	"time"
)

// Kind names the lifecycle change an event reports.
type Kind string

const (
	KindCreated   Kind = "appointment.created"
	KindConfirmed Kind = "appointment.confirmed"
	KindRejected  Kind = "appointment.rejected"
	KindCancelled Kind = "appointment.cancelled"
	KindCompleted Kind = "appointment.completed"
)

// Channel is who the event is addressed to and how.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelInternal Channel = "internal" // business bookkeeping only, the client is not contacted
)

// Event is the structured message handed to the dispatcher. Rendering it into
// text is the consumer's concern.
type Event struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	AppointmentID string    `json:"appointment_id"`
	BusinessID    string    `json:"business_id"`
	Status        string    `json:"status"`
	ClientName    string    `json:"client_name"`
	ClientContact string    `json:"client_contact"`
	ClientEmail   string    `json:"client_email,omitempty"`
	ClientCode    string    `json:"client_code"`
	ServiceName   string    `json:"service_name"`
	StartTime     time.Time `json:"start_time"`
	Channel       Channel   `json:"channel"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Dispatcher accepts events without blocking the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// Sink delivers a single event to a transport.
type Sink interface {
	Send(ctx context.Context, ev Event) error
	Close() error
}
