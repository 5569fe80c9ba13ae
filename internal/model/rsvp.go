package model

import "time"

// RSVP states.
const (
	RSVPConfirmed  = "CONFIRMED"
	RSVPWaitlisted = "WAITLISTED"
	RSVPCancelled  = "CANCELLED"
)

// RSVPID returns the natural key of the RSVP a user holds for an event.
// There is at most one row per (event, user) pair. Event ids never contain
// "_", so the split point is the first separator.
func RSVPID(eventID, userID string) string {
	return eventID + "_" + userID
}

// RSVP records a member's claim on an event.
//
// Fields:
//  ID               – eventID_userID.
//  EventID          – event being attended.
//  UserID           – member uid.
//  Status           – CONFIRMED, WAITLISTED or CANCELLED.
//  WaitlistPosition – 1-based queue position, set only when WAITLISTED.
//  Attended         – attendance flag toggled by admins.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type RSVP struct {
	ID               string
	EventID          string
	UserID           string
	Status           string
	WaitlistPosition *int64
	Attended         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Holds reports whether the RSVP is an active claim on its event.
func (r *RSVP) Holds() bool {
	return r.Status == RSVPConfirmed || r.Status == RSVPWaitlisted
}
