// Package models holds the session-telemetry record shapes owned by the
// terminal gateway. The audit engine does not write these; they pass through
// the secondary sink fan-out only.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one interactive host session.
type Session struct {
	ID         uuid.UUID `json:"id"`
	User       string    `json:"user"`
	Asset      string    `json:"asset"`
	SystemUser string    `json:"system_user"`
	RemoteAddr string    `json:"remote_addr"`
	Protocol   string    `json:"protocol"`
	DateStart  time.Time `json:"date_start"`
	DateEnd    time.Time `json:"date_end"`
}

// Command is one command executed inside a host session.
type Command struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session"`
	User      string    `json:"user"`
	Asset     string    `json:"asset"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	RiskLevel int       `json:"risk_level"`
	Timestamp time.Time `json:"timestamp"`
}
