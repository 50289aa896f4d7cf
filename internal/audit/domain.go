// Package audit exposes the mutation timeline to administrators.
package audit

import "time"

// Entry is one row of the timeline, as read back from audit_logs.
type Entry struct {
	ID        int64
	ActorID   int64
	ActorRole string
	Action    string
	Entity    string
	EntityID  string
	Allowed   bool
	Reason    string
	Meta      map[string]any
	At        time.Time
}

// Filter narrows and pages the timeline.
type Filter struct {
	Entity     string
	EntityID   string
	ActorID    int64
	DeniedOnly bool
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}
