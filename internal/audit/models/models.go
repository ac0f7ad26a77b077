// Package models defines the append-only record types owned by the audit
// stores. Records are immutable once written; there is no update or delete
// path for any of them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Action classifies an operate record.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// Field length caps. Truncation, not rejection, is the policy: oversized
// values are cut down after rendering and stored, never bounced.
const (
	MaxResourceLen  = 128
	MaxReasonLen    = 128
	MaxUserAgentLen = 254
)

// UnknownIP is the sentinel stored when a login source address cannot be
// resolved from the request.
const UnknownIP = "0.0.0.0"

// Truncate caps s at max characters. The cap is character-count based, not
// byte based, so multi-byte runes are never split.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// OperateRecord describes one auditable state change on a domain entity or a
// many-to-many relation between two entities.
type OperateRecord struct {
	ID           uuid.UUID `json:"id"`
	Actor        string    `json:"user"`
	Action       Action    `json:"action"`
	ResourceType string    `json:"resource_type"`
	Resource     string    `json:"resource"`
	RemoteAddr   string    `json:"remote_addr"`
	OrgID        string    `json:"org_id,omitempty"` // empty when no organization context existed
	CreatedAt    time.Time `json:"datetime"`
}

// PasswordChangeRecord describes a password change on a user account. ChangeBy
// is "System" for changes made outside any ambient operation.
type PasswordChangeRecord struct {
	ID         uuid.UUID `json:"id"`
	User       string    `json:"user"`
	ChangeBy   string    `json:"change_by"`
	RemoteAddr string    `json:"remote_addr"`
	CreatedAt  time.Time `json:"datetime"`
}

// Login type tags. Values outside this set may still arrive via the request
// hint header and are stored as-is.
const (
	LoginTypeWeb      = "W"
	LoginTypeTerminal = "T"
	LoginTypeUnknown  = "U"
)

// LoginRecord describes one authentication attempt, successful or not.
type LoginRecord struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	IP         string    `json:"ip"`
	Type       string    `json:"type"`
	UserAgent  string    `json:"user_agent"`
	Backend    string    `json:"backend"`
	MFAEnabled bool      `json:"mfa"`
	Success    bool      `json:"status"`
	Reason     string    `json:"reason,omitempty"` // populated for failures only, capped at MaxReasonLen
	CreatedAt  time.Time `json:"datetime"`
}

// FTPRecord describes one file transfer through the platform. It is written
// by the session gateway, not by this module; it appears here because the
// secondary sink mirrors it under the ftp_log category.
type FTPRecord struct {
	ID         uuid.UUID `json:"id"`
	User       string    `json:"user"`
	RemoteAddr string    `json:"remote_addr"`
	Asset      string    `json:"asset"`
	Operate    string    `json:"operate"`
	Filename   string    `json:"filename"`
	IsSuccess  bool      `json:"is_success"`
	CreatedAt  time.Time `json:"date_start"`
}
