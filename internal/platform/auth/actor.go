package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Roles known to the system. Doctors and admins have full patient access;
// nurses are scoped to patients they are actively assigned to.
const (
	RoleDoctor = "doctor"
	RoleNurse  = "nurse"
	RoleAdmin  = "admin"
)

// Actor is the authenticated caller derived from a verified access token.
type Actor struct {
	ID         int
	Subject    string
	Email      string
	Role       string
	Department string
}

// CanAccessAnyPatient reports whether the role bypasses care-team checks.
func (a Actor) CanAccessAnyPatient() bool {
	return a.Role == RoleDoctor || a.Role == RoleAdmin
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the actor on the request context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor set by the JWT middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}

// SubjectID maps an identity-provider subject (a UUID) onto the integer user
// id space used by the relational schema. First ten hex characters of the
// SHA-256 digest, reduced into the positive int32 range.
func SubjectID(subject string) int {
	sum := sha256.Sum256([]byte(subject))
	prefix := hex.EncodeToString(sum[:])[:10]
	n, err := strconv.ParseInt(prefix, 16, 64)
	if err != nil {
		return 0
	}
	return int(n % 2147483647)
}
