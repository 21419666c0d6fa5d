package logging

import (
	"github.com/hashicorp/go-uuid"
)

const sessionField = "session"

const sessionIDLength = 12

// NewSessionID mints a short correlation id for one connection's lifetime,
// attached to every log line the dispatcher emits for that connection so a single connection's log lines can be grepped out of
// a busy server's output. Truncated from a full UUIDv4 since a globally
// unique id is overkill for a value whose only job is to disambiguate
// concurrently-open connections in a log stream.
func NewSessionID() (string, error) {
	full, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	if len(full) <= sessionIDLength {
		return full, nil
	}
	return full[:sessionIDLength], nil
}

// WithSession returns a clone of c carrying a freshly minted session id
// field, and the id itself so the caller can thread it elsewhere (e.g. into
// an admin-API status row).
func WithSession(c Context) (Context, string, error) {
	id, err := NewSessionID()
	if err != nil {
		return c, "", err
	}
	return c.WithFields(Fields{sessionField: id}), id, nil
}
