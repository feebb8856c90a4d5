package types

import (
	"fmt"
	"strings"
	"time"
)

// EventKind identifies the type of a timeline event.
type EventKind int

const (
	// EventAssigned records that a user was added to the item's assignees.
	EventAssigned EventKind = iota + 1

	// EventUnassigned records that a user was removed from the item's assignees.
	EventUnassigned
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAssigned:
		return "assigned"
	case EventUnassigned:
		return "unassigned"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	if k != EventAssigned && k != EventUnassigned {
		return nil, fmt.Errorf("invalid event kind %d", int(k))
	}

	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(text []byte) error {
	parsed, err := ParseEventKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed

	return nil
}

// ParseEventKind parses an event kind from its short name ("assigned") or its
// GraphQL type name ("AssignedEvent"). Matching is case-insensitive.
//
// Parameters:
//   - s: Event kind name
//
// Returns:
//   - EventKind: Parsed kind
//   - error: Non-nil when s names neither kind
func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "assigned", "assignedevent":
		return EventAssigned, nil
	case "unassigned", "unassignedevent":
		return EventUnassigned, nil
	default:
		return 0, fmt.Errorf("unknown event kind %q", s)
	}
}

// Assignee is the user identity carried by a timeline event.
type Assignee struct {
	// Login is the unique account name.
	Login string `json:"login" yaml:"login"`

	// DisplayName is the optional profile name; empty when the user has none.
	DisplayName string `json:"name,omitempty" yaml:"name,omitempty"`
}

// String returns "login (Display Name)" or just the login.
func (a Assignee) String() string {
	if a.DisplayName == "" {
		return a.Login
	}

	return fmt.Sprintf("%s (%s)", a.Login, a.DisplayName)
}

// TimelineEvent is a timestamped assignment or unassignment of one user.
//
// Events are immutable values. A sequence of events for one item is expected
// in non-decreasing Timestamp order.
type TimelineEvent struct {
	Kind      EventKind `json:"kind" yaml:"kind"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Assignee  Assignee  `json:"assignee" yaml:"assignee"`
}

// Assigned is a convenience constructor for an EventAssigned event.
func Assigned(login string, at time.Time) TimelineEvent {
	return TimelineEvent{Kind: EventAssigned, Timestamp: at, Assignee: Assignee{Login: login}}
}

// Unassigned is a convenience constructor for an EventUnassigned event.
func Unassigned(login string, at time.Time) TimelineEvent {
	return TimelineEvent{Kind: EventUnassigned, Timestamp: at, Assignee: Assignee{Login: login}}
}

// String renders the event as "<kind> <login> <RFC3339 timestamp>".
func (e TimelineEvent) String() string {
	return fmt.Sprintf("%s %s %s", e.Kind, e.Assignee.Login, e.Timestamp.UTC().Format(time.RFC3339))
}
