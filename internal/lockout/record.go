package lockout

import (
	"encoding/json"
	"time"
)

// Record is the persisted lockout state of one project
type Record struct {
	Attempts    int    `json:"attempts"`
	LockedUntil *int64 `json:"lockedUntil,omitempty"` // epoch millis
}

// lockedUntil returns the lock deadline, or the zero time when not locked
func (r Record) lockedUntil() time.Time {
	if r.LockedUntil == nil {
		return time.Time{}
	}
	return time.UnixMilli(*r.LockedUntil)
}

func (r *Record) lock(until time.Time) {
	ms := until.UnixMilli()
	r.LockedUntil = &ms
}

// expired reports whether a lock was set and its deadline has passed
func (r Record) expired(now time.Time) bool {
	return r.LockedUntil != nil && !now.Before(r.lockedUntil())
}

func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, err
	}
	if r.Attempts < 0 {
		r.Attempts = 0
	}
	return r, nil
}

func encodeRecord(r Record) ([]byte, error) {
	return json.Marshal(r)
}
