// Package audit records security-relevant account events (registration,
// logins, verification attempts, profile edits) in the audit_log table and
// lets users review their own recent activity.
//
// Recording is fire-and-forget: a failed audit write is logged and never
// fails the operation being audited.
package audit

import "time"

// Actions follow the "resource.verb" pattern for consistent filtering.
const (
	ActionAccountRegistered  = "account.registered"
	ActionAccountLogin       = "account.login"
	ActionAccountLoginFailed = "account.login_failed"
	ActionAccountLogout      = "account.logout"

	ActionVerificationIssued    = "verification.issued"
	ActionVerificationSucceeded = "verification.succeeded"
	ActionVerificationFailed    = "verification.failed"

	ActionDescriptionUpdated = "profile.description_updated"
)

// Entry is one recorded event.
type Entry struct {
	ID        int64          `json:"id"`
	AccountID string         `json:"account_id"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	IP        string         `json:"ip,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
