package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContractorUpdateKind tags idempotency records written for contractor updates.
const ContractorUpdateKind = "ContractorUpdate"

var ErrInvalidEnvelope = errors.New("invalid contractor envelope")

// ContractorUpdated is the body published by the contractor service whenever
// a contractor changes. It carries the full state as of ModifyDateTime.
type ContractorUpdated struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	INN            string    `json:"inn"`
	ModifyUserID   string    `json:"modifyUserId"`
	ModifyDateTime Timestamp `json:"modifyDateTime"`
}

// Decode parses a message body and checks the external contractor id and
// modification time are present.
func Decode(body []byte) (*ContractorUpdated, error) {
	var ev ContractorUpdated
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if strings.TrimSpace(ev.ID) == "" {
		return nil, fmt.Errorf("%w: missing contractor id", ErrInvalidEnvelope)
	}
	// Last-writer-wins needs a modification time to compare against.
	if ev.ModifyDateTime.IsZero() {
		return nil, fmt.Errorf("%w: missing modifyDateTime", ErrInvalidEnvelope)
	}
	return &ev, nil
}

// Timestamp accepts RFC 3339 as well as zone-less ISO-8601 date-times,
// the latter interpreted as UTC.
type Timestamp struct {
	time.Time
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}

	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v.UTC()
		return nil
	}
	for _, layout := range localLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = v
			return nil
		}
	}

	return fmt.Errorf("parse timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
