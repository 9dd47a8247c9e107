package inbox

import (
	"errors"
	"time"
)

// ErrDuplicate is returned when a record for the message id already exists.
var ErrDuplicate = errors.New("inbox record already exists")

// Record marks a message id as processed (Inbox pattern).
// Records are write-once: the consumer never updates or deletes them.
type Record struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
}
