package domain

import "time"

// AuthAction identifies an auth event recorded in the audit trail.
type AuthAction string

const (
	AuditLogin       AuthAction = "login"
	AuditLoginFailed AuthAction = "login_failed"
	AuditRegister    AuthAction = "register"
	AuditRefresh     AuthAction = "refresh"
	AuditLogout      AuthAction = "logout"
)

// AuthEvent is one entry of the auth audit trail. Recording is best-effort
// and asynchronous; it never blocks or fails the request that produced it.
type AuthEvent struct {
	UserID    string     `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email     string     `json:"email" bson:"email"`
	Action    AuthAction `json:"action" bson:"action"`
	Timestamp time.Time  `json:"timestamp" bson:"timestamp"`
}
