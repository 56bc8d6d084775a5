package auth

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin grants access to the operator routes.
const RoleAdmin = "admin"

// Principal is the caller identified by a verified token.
type Principal struct {
	UserID uuid.UUID
	Role   string
}

// IsAdmin reports whether the principal may use operator routes.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type Strategy interface {
	IssueToken(p Principal) (string, error)
	ParseToken(token string) (Principal, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
