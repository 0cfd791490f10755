package models

import "time"

type Status string

const (
	StatusDraft          Status = "draft"
	StatusPending        Status = "pending"
	StatusInFlight       Status = "in_flight"
	StatusPosted         Status = "posted"
	StatusFailed         Status = "failed"
	StatusPartialSuccess Status = "partial_success"
)

// Platform identifiers known to the dispatcher. The platforms column is a
// plain string list, so new identifiers can be stored without a migration.
const (
	PlatformLinkedIn  = "linkedin"
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
)

type Post struct {
	ID            string            `db:"id" json:"id"`
	Content       string            `db:"content" json:"content"`
	Media         []string          `db:"media" json:"media"`
	ScheduledDate time.Time         `db:"scheduled_date" json:"scheduled_date"`
	Team          string            `db:"team" json:"team,omitempty"`
	Notes         string            `db:"notes" json:"notes,omitempty"`
	Status        Status            `db:"status" json:"status"`
	Platforms     []string          `db:"platforms" json:"platforms"`
	PostLinks     map[string]string `db:"post_links" json:"post_links,omitempty"`
	FailReason    string            `db:"fail_reason" json:"fail_reason,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPending, StatusInFlight, StatusPosted, StatusFailed, StatusPartialSuccess:
		return true
	}
	return false
}

// Terminal reports whether the post has been through a dispatch attempt and
// will not be picked up again. Terminal posts are exempt from the shared
// secret gate on edits and deletes.
func (s Status) Terminal() bool {
	return s == StatusPosted || s == StatusFailed || s == StatusPartialSuccess
}

var transitions = map[Status][]Status{
	StatusDraft:          {StatusPending},
	StatusPending:        {StatusInFlight, StatusPosted, StatusFailed, StatusPartialSuccess},
	StatusInFlight:       {StatusPending, StatusPosted, StatusFailed, StatusPartialSuccess},
	StatusFailed:         {StatusPending},
	StatusPartialSuccess: {StatusPending},
	StatusPosted:         {},
}

// CanTransition validates a status change. Rewriting the same status is
// always allowed so edits that leave status untouched pass through.
// pending -> posted/failed/partial_success exists for the dispatch-completion
// callback, which may finalize a record that was never claimed in-process.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
