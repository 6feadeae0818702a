package models

import "time"

// AdminAccount is provisioned out of band. SessionTokenHash and
// SessionExpiresAt describe the single active session, if any.
type AdminAccount struct {
	ID               string
	Username         string
	PasswordHash     []byte
	SessionTokenHash []byte
	SessionExpiresAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (a AdminAccount) HasSession() bool {
	return len(a.SessionTokenHash) > 0 && a.SessionExpiresAt != nil
}
