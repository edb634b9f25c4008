package platform

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a version 7 UUID. Its leading bits are a millisecond
// timestamp, so IDs created later sort after earlier ones.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IDTime extracts the creation time embedded in an ID from NewID.
func IDTime(id string) (time.Time, bool) {
	u, err := uuid.Parse(id)
	if err != nil || u.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), true
}
