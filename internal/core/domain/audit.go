package domain

import "time"

// AuditKind names a security-relevant account event.
type AuditKind string

const (
	AuditLoginSucceeded  AuditKind = "login_succeeded"
	AuditLoginFailed     AuditKind = "login_failed"
	AuditTokenRefreshed  AuditKind = "token_refreshed"
	AuditRefreshReused   AuditKind = "refresh_reused"
	AuditUserCreated     AuditKind = "user_created"
	AuditUserDeleted     AuditKind = "user_deleted"
	AuditPasswordChanged AuditKind = "password_changed"
)

// AuditEvent is one entry of the account audit trail. UserID is empty when
// the event could not be tied to an account (e.g. login with unknown email).
type AuditEvent struct {
	Kind      AuditKind
	UserID    string
	Email     string
	Timestamp time.Time
}
