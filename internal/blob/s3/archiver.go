package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pookielabs/cardmarket/internal/domain"
)

// archiveBatchSize bounds how many rows are pulled from the database per
// query while building an archive file.
const archiveBatchSize = 1000

// ArchiveImpl implements domain.Archiver by querying the stores for old
// records, serializing them to JSONL, uploading the result to object
// storage, and then deleting the archived rows from the primary store. The
// upload happens before the delete so a failed upload never loses data.
type ArchiveImpl struct {
	writer domain.BlobWriter
	sales  domain.SaleStore
	audit  domain.AuditStore
	logger *slog.Logger
}

var _ domain.Archiver = (*ArchiveImpl)(nil)

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, sales domain.SaleStore, audit domain.AuditStore, logger *slog.Logger) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		sales:  sales,
		audit:  audit,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveSales moves all sales executed strictly before the cutoff to
// JSONL files under archive/sales/ and deletes them from the database.
// Rows are processed in batches, oldest first; each batch is uploaded
// before its rows are deleted so a failed upload never loses data. The
// archival is recorded in the audit log and the count of archived records
// is returned.
func (a *ArchiveImpl) ArchiveSales(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	var paths []string
	for {
		batch, err := a.sales.ListBefore(ctx, before, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive sales query: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		buf, err := marshalJSONL(batch)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive sales marshal: %w", err)
		}

		newest := batch[len(batch)-1].ExecutedAt
		path := archivePath("sales", newest)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("s3blob: archive sales upload: %w", err)
		}
		paths = append(paths, path)

		// Deleting the batch advances the next ListBefore query.
		deleted, err := a.sales.DeleteBefore(ctx, newest.Add(time.Nanosecond))
		if err != nil {
			return total, fmt.Errorf("s3blob: archive sales delete: %w", err)
		}
		total += deleted

		if len(batch) < archiveBatchSize {
			break
		}
	}
	if total == 0 {
		return 0, nil
	}

	a.logger.InfoContext(ctx, "sales archived",
		slog.Int("files", len(paths)),
		slog.Int64("count", total),
	)

	if err := a.audit.Log(ctx, "archive.sales", map[string]any{
		"paths": paths,
		"count": total,
	}); err != nil {
		return total, fmt.Errorf("s3blob: archive sales audit log: %w", err)
	}

	return total, nil
}

// ArchiveAuditLog moves all audit entries created strictly before the
// cutoff to JSONL files under archive/audit/ and deletes them from the
// database. The count of archived records is returned.
func (a *ArchiveImpl) ArchiveAuditLog(ctx context.Context, before time.Time) (int64, error) {
	var total int64
	var files int
	for {
		batch, err := a.audit.ListBefore(ctx, before, archiveBatchSize)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive audit query: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		buf, err := marshalJSONL(batch)
		if err != nil {
			return total, fmt.Errorf("s3blob: archive audit marshal: %w", err)
		}

		newest := batch[len(batch)-1].CreatedAt
		path := archivePath("audit", newest)
		if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
			return total, fmt.Errorf("s3blob: archive audit upload: %w", err)
		}
		files++

		deleted, err := a.audit.DeleteBefore(ctx, newest.Add(time.Nanosecond))
		if err != nil {
			return total, fmt.Errorf("s3blob: archive audit delete: %w", err)
		}
		total += deleted

		if len(batch) < archiveBatchSize {
			break
		}
	}
	if total == 0 {
		return 0, nil
	}

	a.logger.InfoContext(ctx, "audit log archived",
		slog.Int("files", files),
		slog.Int64("count", total),
	)

	return total, nil
}

// archivePath builds the object key for an archive batch, partitioned by
// the year-month of the newest archived record and disambiguated by its
// full timestamp.
//
//	archive/sales/2026-02/20260228T235900Z.jsonl
func archivePath(kind string, newest time.Time) string {
	return fmt.Sprintf("archive/%s/%s/%s.jsonl",
		kind, newest.Format("2006-01"), newest.UTC().Format("20060102T150405Z"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
