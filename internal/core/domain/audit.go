package domain

import "time"

// Audit actions recorded by the authentication layer.
const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"
	AuditActionRefresh  = "refresh"
	AuditActionAuth     = "auth"
	AuditActionDenied   = "denied"
	AuditActionLogout   = "logout"
)

// AuditEvent is a single authentication/authorization observation. Events
// are observability records, never inputs to authorization decisions.
type AuditEvent struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Action    string    `json:"action"`
	Code      string    `json:"code,omitempty"` // failure code on denials
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	At        time.Time `json:"at"`
}
