package auditlog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tirehub/punchout-backend/pkg/db/models"
	"github.com/tirehub/punchout-backend/pkg/enums"
)

func newTestWriter(t *testing.T) (*Writer, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.PunchoutLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewWriter(conn, nil), conn
}

func TestWritePersistsEntry(t *testing.T) {
	writer, conn := newTestWriter(t)
	sessionID := uuid.New()

	writer.Info(context.Background(), sessionID, "setup", "credentials validated", map[string]any{
		"partner": "ACME",
	})

	var rows []models.PunchoutLog
	if err := conn.Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].SessionID != sessionID || rows[0].Level != enums.LogLevelInfo || rows[0].Source != "setup" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
	if rows[0].Context["partner"] != "ACME" {
		t.Fatalf("unexpected context %+v", rows[0].Context)
	}
}

func TestWriteDropsSessionlessEntries(t *testing.T) {
	writer, conn := newTestWriter(t)

	writer.Write(context.Background(), Entry{Message: "orphan"})

	var count int64
	if err := conn.Model(&models.PunchoutLog{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows, got %d", count)
	}
}

func TestWriteTruncatesLongMessages(t *testing.T) {
	writer, conn := newTestWriter(t)

	writer.Error(context.Background(), uuid.New(), "setup", strings.Repeat("x", 2048), nil)

	var row models.PunchoutLog
	if err := conn.First(&row).Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	if len(row.Message) != 1024 {
		t.Fatalf("expected truncated message, got %d chars", len(row.Message))
	}
	if row.Level != enums.LogLevelError {
		t.Fatalf("expected error level, got %s", row.Level)
	}
}
