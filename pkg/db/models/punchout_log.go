package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/enums"
)

// PunchoutLog is a session-scoped audit entry.
type PunchoutLog struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SessionID uuid.UUID      `gorm:"column:session_id;type:uuid;not null;index"`
	Level     enums.LogLevel `gorm:"column:level;not null;default:'info'"`
	Source    string         `gorm:"column:source;not null;default:''"`
	Message   string         `gorm:"column:message;not null"`
	Context   map[string]any `gorm:"column:context;type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutLog) TableName() string { return "punchout_logs" }
