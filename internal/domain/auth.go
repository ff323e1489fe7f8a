package domain

import "time"

// Token represents issued authentication token metadata. The token itself is
// a signed JWT; claims are fixed at issuance and cannot be amended.
type Token struct {
	SubjectID string
	Username  string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}
