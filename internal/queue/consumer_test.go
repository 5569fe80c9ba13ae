package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatLine(t *testing.T) {
	t.Parallel()

	pos := int64(2)
	waitlisted := FormatLine(RSVPAdmittedEvent{
		RSVPID:           "e1_u1",
		EventID:          "e1",
		EventTitle:       "Thursday Badminton",
		UserID:           "u1",
		Status:           "WAITLISTED",
		WaitlistPosition: &pos,
		AdmittedAt:       "2026-09-05T19:00:00Z",
	})
	want := `[2026-09-05T19:00:00Z] RSVP WAITLISTED | rsvp_id=e1_u1 | user_id=u1 | event_id=e1 | event="Thursday Badminton" | waitlist_position=2 | tokens=0` + "\n"
	if waitlisted != want {
		t.Fatalf("line = %q\nwant   %q", waitlisted, want)
	}

	confirmed := FormatLine(RSVPAdmittedEvent{RSVPID: "e1_u2", Status: "CONFIRMED", TokensDebited: 3, TransactionID: "tx-9"})
	if !strings.Contains(confirmed, "waitlist_position=-") || !strings.HasSuffix(confirmed, "| transaction_id=tx-9\n") {
		t.Fatalf("line = %q", confirmed)
	}
}

func TestHandleMessageAppendsToLog(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "logs")
	for _, id := range []string{"e1_u1", "e1_u2"} {
		body, err := json.Marshal(RSVPAdmittedEvent{RSVPID: id, EventID: "e1", Status: "CONFIRMED"})
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if err := HandleMessage(dir, body); err != nil {
			t.Fatalf("handle %s: %v", id, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "rsvp.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("log has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[1], "rsvp_id=e1_u2") {
		t.Fatalf("second line = %q", lines[1])
	}
}

func TestHandleMessageRejectsBadPayloads(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, body := range []string{`not json`, `{"rsvp_id":"e1_u1"}`, `{"status":"CONFIRMED"}`} {
		if err := HandleMessage(dir, []byte(body)); err == nil {
			t.Errorf("HandleMessage(%s) succeeded, want error", body)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "rsvp.log")); !os.IsNotExist(err) {
		t.Fatalf("rsvp.log created for rejected messages: %v", err)
	}
}
