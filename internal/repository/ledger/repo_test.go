package ledger

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/veritex-io/veritex/internal/db"
	"github.com/veritex-io/veritex/internal/domain"
)

type stubStore struct {
	streams map[string][]map[string]string
	kv      map[string][]byte
	xaddErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		streams: map[string][]map[string]string{},
		kv:      map[string][]byte{},
	}
}

func (s *stubStore) XAdd(_ context.Context, stream string, fields map[string]string) (string, error) {
	if s.xaddErr != nil {
		return "", s.xaddErr
	}
	s.streams[stream] = append(s.streams[stream], fields)
	return strconv.Itoa(len(s.streams[stream])) + "-0", nil
}

func (s *stubStore) XLen(_ context.Context, stream string) (int64, error) {
	return int64(len(s.streams[stream])), nil
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *stubStore) Set(_ context.Context, key string, value []byte) error {
	s.kv[key] = value
	return nil
}

func record(id string) domain.AnchorRecord {
	return domain.AnchorRecord{
		ReportID:   id,
		Digest:     "aabbcc",
		CID:        "aabbcc",
		AnchoredAt: time.Date(2026, 8, 25, 13, 0, 0, 0, time.UTC),
	}
}

func TestAppendAndGet(t *testing.T) {
	store := newStubStore()
	repo := New(store)

	rec := record("RPT_1")
	if err := repo.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries := store.streams[streamKey]
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	if entries[0]["report_id"] != "RPT_1" || entries[0]["digest"] != "aabbcc" {
		t.Errorf("unexpected stream fields: %v", entries[0])
	}

	got, err := repo.Get(context.Background(), "RPT_1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Digest != rec.Digest || !got.AnchoredAt.Equal(rec.AnchoredAt) {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	store := newStubStore()
	repo := New(store)

	if err := repo.Append(context.Background(), record("RPT_1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(context.Background(), record("RPT_2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	n, err := repo.Len(context.Background())
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 2 {
		t.Errorf("ledger length = %d, want 2", n)
	}
}

func TestStreamFailureAbortsAppend(t *testing.T) {
	store := newStubStore()
	store.xaddErr = errors.New("stream write failed")
	repo := New(store)

	if err := repo.Append(context.Background(), record("RPT_1")); err == nil {
		t.Fatal("expected error")
	}
	if len(store.kv) != 0 {
		t.Error("lookup mirror must not exist without a stream entry")
	}
}

func TestGetMissingAnchor(t *testing.T) {
	repo := New(newStubStore())
	_, err := repo.Get(context.Background(), "RPT_missing")
	if !errors.Is(err, domain.ErrAnchorNotFound) {
		t.Errorf("expected ErrAnchorNotFound, got %v", err)
	}
}
