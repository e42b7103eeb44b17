package s3blob

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pookielabs/cardmarket/internal/domain"
)

type memWriter struct {
	objects map[string][]byte
}

func (w *memWriter) Put(_ context.Context, path string, data io.Reader, _ string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if w.objects == nil {
		w.objects = map[string][]byte{}
	}
	w.objects[path] = b
	return nil
}

func (w *memWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "")
}

type memSales struct {
	sales []domain.Sale
}

func (s *memSales) Insert(context.Context, domain.Sale) error { return nil }
func (s *memSales) ListByCard(context.Context, string, domain.ListOpts) ([]domain.Sale, error) {
	return nil, nil
}
func (s *memSales) ListRecent(context.Context, int) ([]domain.Sale, error) { return nil, nil }

func (s *memSales) ListBefore(_ context.Context, before time.Time, limit int) ([]domain.Sale, error) {
	var out []domain.Sale
	for _, sale := range s.sales {
		if sale.ExecutedAt.Before(before) {
			out = append(out, sale)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memSales) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.Sale
	var deleted int64
	for _, sale := range s.sales {
		if sale.ExecutedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, sale)
	}
	s.sales = kept
	return deleted, nil
}

type memAudit struct {
	entries []domain.AuditEntry
	logged  []string
}

func (a *memAudit) Log(_ context.Context, event string, _ map[string]any) error {
	a.logged = append(a.logged, event)
	return nil
}

func (a *memAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func (a *memAudit) ListBefore(_ context.Context, before time.Time, limit int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for _, e := range a.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (a *memAudit) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.AuditEntry
	var deleted int64
	for _, e := range a.entries {
		if e.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	a.entries = kept
	return deleted, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveSales(t *testing.T) {
	old := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sales := &memSales{sales: []domain.Sale{
		{ID: "s1", CardID: "c1", Price: 100, ExecutedAt: old},
		{ID: "s2", CardID: "c2", Price: 200, ExecutedAt: old.Add(time.Hour)},
		{ID: "s3", CardID: "c3", Price: 300, ExecutedAt: recent},
	}}
	audit := &memAudit{}
	w := &memWriter{}
	a := NewArchiver(w, sales, audit, testLogger())

	n, err := a.ArchiveSales(context.Background(), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// The recent sale survives.
	require.Len(t, sales.sales, 1)
	assert.Equal(t, "s3", sales.sales[0].ID)

	// One JSONL object with one line per archived sale.
	require.Len(t, w.objects, 1)
	body, ok := w.objects["archive/sales/2026-01/20260115T010000Z.jsonl"]
	require.True(t, ok)
	lines := bytes.Split(bytes.TrimSpace(body), []byte("\n"))
	assert.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"id":"s1"`)

	// Archival recorded in the audit log.
	assert.Equal(t, []string{"archive.sales"}, audit.logged)
}

func TestArchiveSalesEmpty(t *testing.T) {
	sales := &memSales{}
	w := &memWriter{}
	a := NewArchiver(w, sales, &memAudit{}, testLogger())

	n, err := a.ArchiveSales(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.objects)
}

func TestArchiveAuditLog(t *testing.T) {
	old := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	audit := &memAudit{entries: []domain.AuditEntry{
		{ID: 1, Event: "card_minted", CreatedAt: old},
		{ID: 2, Event: "sale_completed", CreatedAt: old.Add(time.Hour)},
		{ID: 3, Event: "bid_placed", CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}}
	w := &memWriter{}
	a := NewArchiver(w, &memSales{}, audit, testLogger())

	n, err := a.ArchiveAuditLog(context.Background(), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, int64(3), audit.entries[0].ID)

	body, ok := w.objects["archive/audit/2026-01/20260110T010000Z.jsonl"]
	require.True(t, ok)
	assert.Equal(t, 2, strings.Count(string(body), "\n"))
}

func TestArchivePathPartitionsByMonth(t *testing.T) {
	at := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "archive/sales/2026-02/20260228T235900Z.jsonl", archivePath("sales", at))
}
