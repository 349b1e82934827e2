package auditlog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
	"github.com/tirehub/punchout-backend/pkg/logger"
)

// maxMessageLength caps persisted audit messages.
const maxMessageLength = 1024

// Writer persists session-scoped audit entries. Failures are logged and
// swallowed so auditing never breaks the request path.
type Writer struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewWriter builds an audit log writer.
func NewWriter(db *gorm.DB, logg *logger.Logger) *Writer {
	return &Writer{db: db, logg: logg}
}

// Entry is one audit record to persist.
type Entry struct {
	SessionID uuid.UUID
	Level     enums.LogLevel
	Source    string
	Message   string
	Context   map[string]any
}

// Write stores the entry. Entries without a session are dropped since
// every audit row hangs off a punchout session.
func (w *Writer) Write(ctx context.Context, entry Entry) {
	if w == nil || w.db == nil {
		return
	}
	if entry.SessionID == uuid.Nil {
		return
	}
	level := entry.Level
	if level == "" {
		level = enums.LogLevelInfo
	}
	message := entry.Message
	if len(message) > maxMessageLength {
		message = message[:maxMessageLength]
	}

	row := &models.PunchoutLog{
		ID:        uuid.New(),
		SessionID: entry.SessionID,
		Level:     level,
		Source:    entry.Source,
		Message:   message,
		Context:   entry.Context,
	}
	if err := w.db.WithContext(ctx).Create(row).Error; err != nil && w.logg != nil {
		w.logg.Warn(ctx, "audit log write failed: "+err.Error())
	}
}

// ListBySession returns the audit trail for one session, oldest first.
func (w *Writer) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.PunchoutLog, error) {
	if w == nil || w.db == nil {
		return nil, nil
	}
	var rows []models.PunchoutLog
	err := w.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Info records an info-level entry.
func (w *Writer) Info(ctx context.Context, sessionID uuid.UUID, source, message string, context map[string]any) {
	w.Write(ctx, Entry{SessionID: sessionID, Level: enums.LogLevelInfo, Source: source, Message: message, Context: context})
}

// Error records an error-level entry.
func (w *Writer) Error(ctx context.Context, sessionID uuid.UUID, source, message string, context map[string]any) {
	w.Write(ctx, Entry{SessionID: sessionID, Level: enums.LogLevelError, Source: source, Message: message, Context: context})
}
