package security

import (
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewSessionToken returns an opaque bearer token. The KSUID half embeds a
// timestamp and its own random payload, so two tokens never collide even if
// one of the entropy sources repeats.
func NewSessionToken() string {
	return uuid.NewString() + "-" + ksuid.New().String()
}
