// Package service holds the transactional operations that touch more than
// one table: RSVP admission, token credits and the broker publisher that
// announces committed admissions.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/queue"
	"github.com/iliyamo/club-membership/internal/repository"
)

// Admission failures. Each is detected before any write is staged, so a
// failed admission leaves counters, balances and the ledger untouched.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyBooked      = errors.New("already rsvped to this event")
	ErrInsufficientTokens = errors.New("insufficient tokens")
)

// ErrStoreConflict is returned when the admission transaction could not be
// committed within the retry budget. The request has no side effects and
// may be retried by the caller.
var ErrStoreConflict = database.ErrRetriesExhausted

// AdmissionResult is what a member is told after an RSVP attempt.
type AdmissionResult struct {
	Status           string
	WaitlistPosition *int64
}

// Publisher announces committed admissions.
type Publisher interface {
	PublishRSVPAdmitted(ctx context.Context, ev queue.RSVPAdmittedEvent) error
}

// AdmissionService decides, for one member and one event, whether the
// member gets a confirmed seat or a waitlist position, and applies the
// counter, balance and ledger changes in a single transaction.
type AdmissionService struct {
	db       *sql.DB
	events   *repository.EventRepo
	members  *repository.MemberRepo
	rsvps    *repository.RSVPRepo
	ledger   *repository.LedgerRepo
	attempts int
	pub      Publisher
	now      func() time.Time
}

// NewAdmissionService wires the repositories used by the admission
// transaction. attempts is the store retry budget; zero selects
// database.DefaultAttempts. pub may be nil.
func NewAdmissionService(db *sql.DB, events *repository.EventRepo, members *repository.MemberRepo,
	rsvps *repository.RSVPRepo, ledger *repository.LedgerRepo, attempts int, pub Publisher) *AdmissionService {
	return &AdmissionService{
		db:       db,
		events:   events,
		members:  members,
		rsvps:    rsvps,
		ledger:   ledger,
		attempts: attempts,
		pub:      pub,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// plan is the outcome of decide: what to write, computed purely from the
// state read in the current transaction attempt.
type plan struct {
	status   string
	position *int64
	debit    int64
}

// decide applies the admission rules to a snapshot. existing is nil when
// the member has no RSVP row for the event.
func decide(ev model.Event, m model.Member, existing *model.RSVP) (plan, error) {
	if existing != nil && existing.Holds() {
		return plan{}, ErrAlreadyBooked
	}
	if ev.ConfirmedCount < ev.Capacity {
		if m.TokenBalance < ev.TokensRequired {
			return plan{}, ErrInsufficientTokens
		}
		return plan{status: model.RSVPConfirmed, debit: ev.TokensRequired}, nil
	}
	// Waitlisted members are not charged until promoted.
	pos := ev.WaitlistCount + 1
	return plan{status: model.RSVPWaitlisted, position: &pos}, nil
}

// admitted collects what the committed attempt produced, for the caller
// and the publisher.
type admitted struct {
	result AdmissionResult
	event  model.Event
	txID   string
	debit  int64
	at     time.Time
}

// RequestAdmission runs the admission transaction for userID on eventID.
// It returns ErrEventNotFound, ErrUserNotFound, ErrAlreadyBooked or
// ErrInsufficientTokens for business failures and wraps ErrStoreConflict
// when the store kept conflicting.
func (s *AdmissionService) RequestAdmission(ctx context.Context, eventID, userID string) (AdmissionResult, error) {
	var out admitted
	err := database.RunInTx(ctx, s.db, s.attempts, func(ctx context.Context, tx *sql.Tx) error {
		a, err := s.admitTx(ctx, tx, eventID, userID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return AdmissionResult{}, err
	}
	s.publish(out, userID)
	return out.result, nil
}

// admitTx is one attempt: read snapshot, decide, stage writes. It keeps no
// state outside its return value so a retried attempt starts clean.
func (s *AdmissionService) admitTx(ctx context.Context, tx *sql.Tx, eventID, userID string) (admitted, error) {
	ev, err := s.events.GetForUpdateTx(ctx, tx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return admitted{}, ErrEventNotFound
	}
	if err != nil {
		return admitted{}, fmt.Errorf("read event: %w", err)
	}
	m, err := s.members.GetForUpdateTx(ctx, tx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return admitted{}, ErrUserNotFound
	}
	if err != nil {
		return admitted{}, fmt.Errorf("read member: %w", err)
	}
	var existing *model.RSVP
	cur, err := s.rsvps.GetForUpdateTx(ctx, tx, eventID, userID)
	switch {
	case err == nil:
		existing = &cur
	case errors.Is(err, repository.ErrNotFound):
	default:
		return admitted{}, fmt.Errorf("read rsvp: %w", err)
	}

	p, err := decide(ev, m, existing)
	if err != nil {
		return admitted{}, err
	}

	now := s.now()
	rv := model.RSVP{
		EventID:          eventID,
		UserID:           userID,
		Status:           p.status,
		WaitlistPosition: p.position,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if existing != nil {
		err = s.rsvps.OverwriteTx(ctx, tx, rv)
	} else {
		err = s.rsvps.InsertTx(ctx, tx, rv)
	}
	if err != nil {
		return admitted{}, err
	}

	if p.status == model.RSVPConfirmed {
		err = s.events.IncrementConfirmedTx(ctx, tx, eventID)
	} else {
		err = s.events.IncrementWaitlistTx(ctx, tx, eventID)
	}
	if err != nil {
		return admitted{}, err
	}

	a := admitted{
		result: AdmissionResult{Status: p.status, WaitlistPosition: p.position},
		event:  ev,
		at:     now,
	}
	if p.debit > 0 {
		if err := s.members.AdjustBalanceTx(ctx, tx, userID, -p.debit, now); err != nil {
			return admitted{}, err
		}
		desc := "RSVP to " + ev.Title
		row, err := s.ledger.AppendTx(ctx, tx, model.TokenTransaction{
			UserID:      userID,
			Type:        model.TxDebit,
			Amount:      p.debit,
			Description: &desc,
			EventID:     &eventID,
			CreatedAt:   now,
		})
		if err != nil {
			return admitted{}, err
		}
		a.txID = row.ID
		a.debit = p.debit
	}
	return a, nil
}

// publish announces the admission in the background. Broker failures are
// logged and never affect the already committed admission.
func (s *AdmissionService) publish(a admitted, userID string) {
	if s.pub == nil {
		return
	}
	ev := queue.RSVPAdmittedEvent{
		RSVPID:           model.RSVPID(a.event.ID, userID),
		EventID:          a.event.ID,
		EventTitle:       a.event.Title,
		UserID:           userID,
		Status:           a.result.Status,
		WaitlistPosition: a.result.WaitlistPosition,
		TokensDebited:    a.debit,
		TransactionID:    a.txID,
		AdmittedAt:       a.at.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.pub.PublishRSVPAdmitted(ctx, ev); err != nil {
			log.Printf("admission: publish %s failed: %v", ev.RSVPID, err)
		}
	}()
}
