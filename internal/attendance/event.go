package attendance

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the human-readable timestamp written into events. It
// matches what existing sheet consumers already parse.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Event is an immutable projection of one registration or scan outcome. It is
// never stored in the registry; it exists only to be forwarded to the event
// sink.
type Event struct {
	ID            string `json:"id"`
	Timestamp     string `json:"timestamp"`
	EntryID       string `json:"entryId"`
	Name          string `json:"name"`
	Status        Status `json:"status"`
	Phone         string `json:"phone"`
	GuardianPhone string `json:"guardianPhone"`
	PhotoRef      string `json:"photoRef"`
}

// NewEvent builds the event describing a record's latest mutation.
func NewEvent(rec Record, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Timestamp:     now.Format(TimestampLayout),
		EntryID:       rec.EntryID,
		Name:          rec.Name,
		Status:        rec.LastStatus,
		Phone:         rec.Phone,
		GuardianPhone: rec.GuardianPhone,
		PhotoRef:      rec.PhotoRef,
	}
}

// Row returns the event as the ordered row the sink expects.
func (e Event) Row() []string {
	return []string{e.Timestamp, e.EntryID, e.Name, string(e.Status), e.Phone, e.GuardianPhone, e.PhotoRef}
}
