package ingest

import (
	"sync/atomic"

	"visa-status-service/internal/common/metrics"
	"visa-status-service/internal/models"
)

// RecordIndex is an immutable snapshot of the ingested records, shared
// read-only across all concurrent requests. A re-ingestion produces a
// new snapshot; nothing mutates an index after it is built.
type RecordIndex struct {
	records map[string]models.VisaRecord
}

func emptyIndex() *RecordIndex {
	return &RecordIndex{records: map[string]models.VisaRecord{}}
}

// Lookup resolves a normalized application number against the snapshot.
func (idx *RecordIndex) Lookup(number string) (models.VisaRecord, bool) {
	rec, ok := idx.records[number]
	return rec, ok
}

// Len returns the number of records in the snapshot.
func (idx *RecordIndex) Len() int {
	return len(idx.records)
}

// Store owns the current index snapshot. Publication is a single
// atomic pointer swap, so readers never observe a partially built
// index.
type Store struct {
	snapshot atomic.Pointer[RecordIndex]
}

func NewStore() *Store {
	s := &Store{}
	s.snapshot.Store(emptyIndex())
	return s
}

// Publish replaces the current snapshot.
func (s *Store) Publish(idx *RecordIndex) {
	s.snapshot.Store(idx)
	metrics.RecordsIngested.Set(float64(idx.Len()))
}

// Snapshot returns the current index.
func (s *Store) Snapshot() *RecordIndex {
	return s.snapshot.Load()
}

// Reload re-ingests the source and swaps the snapshot in on success.
// On ingestion failure the previous snapshot stays published.
func (s *Store) Reload(in *Ingester, path string) error {
	idx, err := in.Ingest(path)
	if err != nil {
		return err
	}
	s.Publish(idx)
	return nil
}
