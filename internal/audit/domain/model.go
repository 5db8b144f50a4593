package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AuditLog is an append-only record of a back-office mutation. Entries are
// written best-effort and never block the operation they describe.
type AuditLog struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Action    string       `json:"action" gorm:"type:varchar(64);not null;index"`
	Entity    string       `json:"entity" gorm:"type:varchar(32);not null"`
	EntityID  string       `json:"entity_id" gorm:"type:varchar(32);index"`
	Detail    string       `json:"detail" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// ExportFormat represents the output format for audit exports.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

func ParseExportFormat(s string) (ExportFormat, bool) {
	f := ExportFormat(s)
	switch f {
	case ExportFormatCSV, ExportFormatJSON:
		return f, true
	}
	return "", false
}

// ExportRequest defines parameters for an audit trail export.
type ExportRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Format    ExportFormat
	Actions   []string
}

// ExportResult contains the exported data and metadata. The checksum lets a
// downstream consumer verify the file arrived intact.
type ExportResult struct {
	Data     []byte
	Checksum string
	Format   ExportFormat
	Count    int
}

type Repository interface {
	Insert(ctx context.Context, entry *AuditLog) error
	List(ctx context.Context, action string, limit int) ([]AuditLog, error)
	ListRange(ctx context.Context, start, end time.Time, actions []string) ([]AuditLog, error)
	// DeleteBefore prunes entries older than cutoff and reports how many
	// rows were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
