package actor

import (
	"context"
	"fmt"
	"strings"
)

// Role is the closed set of roles an authenticated actor can hold.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts any casing and rejects roles outside the enum.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r), nil
}

// Actor is the authenticated identity handed to the engine by the auth layer.
type Actor struct {
	UserID    int64 `json:"user_id"`
	Role      Role  `json:"role"`
	CompanyID int64 `json:"company_id"`
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
