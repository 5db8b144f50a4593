package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/wavelinklabs/wavelink/internal/audit/domain"
)

// Export renders the audit trail for a date range as CSV or JSON, with a
// SHA-256 checksum for integrity verification.
func (s *Service) Export(ctx context.Context, req domain.ExportRequest) (*domain.ExportResult, error) {
	logs, err := s.repo.ListRange(ctx, req.StartDate, req.EndDate, req.Actions)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case domain.ExportFormatCSV:
		data, err = formatCSV(logs)
	case domain.ExportFormatJSON:
		data, err = json.MarshalIndent(logs, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported export format: %s", req.Format)
	}
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &domain.ExportResult{
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
		Format:   req.Format,
		Count:    len(logs),
	}, nil
}

func formatCSV(logs []domain.AuditLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "action", "entity", "entity_id", "detail", "created_at"}); err != nil {
		return nil, err
	}
	for _, l := range logs {
		record := []string{
			l.ID.String(),
			l.Action,
			l.Entity,
			l.EntityID,
			l.Detail,
			l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
