package notify

import (
	"encoding/json"
	"time"
)

type Type string

const (
	TypeAlert      Type = "alert"
	TypeBreach     Type = "breach"
	TypeMonitoring Type = "monitoring"
	TypeSystem     Type = "system"
	TypeSuccess    Type = "success"
	TypeWarning    Type = "warning"
	TypeError      Type = "error"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type Notification struct {
	Id        string          `json:"id"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	IsRead    bool            `json:"isRead"`
	Priority  Priority        `json:"priority"`
	Data      json.RawMessage `json:"data,omitempty"`
}
