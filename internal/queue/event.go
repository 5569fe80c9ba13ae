// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// RSVPAdmittedQueue is the durable queue admissions are published to.
const RSVPAdmittedQueue = "rsvp.admitted"

// RSVPAdmittedEvent is published after an admission transaction commits.
// It carries enough for downstream consumers to log, notify or trigger
// analytics without querying the ledger database.
type RSVPAdmittedEvent struct {
	RSVPID           string `json:"rsvp_id"`
	EventID          string `json:"event_id"`
	EventTitle       string `json:"event_title"`
	UserID           string `json:"user_id"`
	Status           string `json:"status"`
	WaitlistPosition *int64 `json:"waitlist_position"`
	TokensDebited    int64  `json:"tokens_debited"`
	TransactionID    string `json:"transaction_id,omitempty"`
	AdmittedAt       string `json:"admitted_at"`
}
