package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/agendahq/backoffice/internal/models"
)

const writeTimeout = 5 * time.Second

// Logger is the Writer backed by the audit_logs table.
type Logger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Write(ev Event) error {
	row, err := toRow(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	return l.db.WithContext(ctx).Create(&row).Error
}

func toRow(ev Event) (models.AuditLog, error) {
	row := models.AuditLog{
		AccountID: ev.AccountID,
		UserID:    ev.UserID,
		Action:    ev.Action,
		Entity:    ev.Entity,
		EntityID:  ev.EntityID,
		CreatedAt: ev.OccurredAt,
	}

	if ev.Metadata != nil {
		b, err := json.Marshal(ev.Metadata)
		if err != nil {
			return row, fmt.Errorf("audit metadata for %s: %w", ev.Action, err)
		}
		row.Metadata = string(b)
	}

	return row, nil
}

var _ Writer = (*Logger)(nil)
