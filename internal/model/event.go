package model

import "time"

// Event lifecycle states.
const (
	EventDraft     = "DRAFT"
	EventPublished = "PUBLISHED"
	EventCancelled = "CANCELLED"
	EventCompleted = "COMPLETED"
)

// Event is a bookable club session. ConfirmedCount and WaitlistCount are
// denormalized counters maintained only by the admission transaction so the
// capacity check is a single row read.
//
// Fields:
//  ID             – primary key.
//  Title          – display title, used in ledger descriptions.
//  Description    – free text (nullable).
//  Category       – WEEKLY_SPORTS, MONTHLY_EVENTS or FEATURED_EVENTS.
//  SportID        – sport slug, e.g. "badminton".
//  StartTime      – session start (UTC).
//  EndTime        – session end (UTC).
//  Capacity       – maximum confirmed seats, > 0.
//  TokensRequired – cost of a confirmed seat, >= 0.
//  ConfirmedCount – confirmed RSVPs so far, 0..Capacity.
//  WaitlistCount  – waitlisted RSVPs so far.
//  Status         – DRAFT, PUBLISHED, CANCELLED or COMPLETED.
//  IsPublic       – whether members can see the event.
//  CreatedBy      – uid of the admin who created it (nullable).
//  CreatedAt      – creation timestamp.
type Event struct {
	ID             string
	Title          string
	Description    *string
	Category       string
	SportID        string
	StartTime      time.Time
	EndTime        time.Time
	Capacity       int64
	TokensRequired int64
	ConfirmedCount int64
	WaitlistCount  int64
	Status         string
	IsPublic       bool
	CreatedBy      *string
	CreatedAt      time.Time
}

// IsFull returns true when no confirmed seat remains.
func (e *Event) IsFull() bool {
	return e.ConfirmedCount >= e.Capacity
}
