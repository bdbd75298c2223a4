package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"visa-status-service/internal/common/config"
	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngester(t *testing.T) *Ingester {
	return NewIngester(config.IngestionConfig{
		HeaderSentinel: "Application Number",
	}, logger.NewTestLogger(t))
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngest_BasicRows(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A,IRL123456,Approved\n"+
			"1,A,IRL789012,Refused\n"+
			"1,B,IRL345678,Rejected\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	rec, ok := idx.Lookup("IRL123456")
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, rec.Status)

	rec, ok = idx.Lookup("IRL789012")
	require.True(t, ok)
	assert.Equal(t, models.StatusRejected, rec.Status)

	rec, ok = idx.Lookup("IRL345678")
	require.True(t, ok)
	assert.Equal(t, models.StatusRejected, rec.Status)
}

func TestIngest_TopmostDuplicateWins(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A,IRL123456,Approved\n"+
			"1,B,IRL123456,Refused\n"+
			"2,C,IRL123456,Refused\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	rec, ok := idx.Lookup("IRL123456")
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, rec.Status, "the row nearest the top must be authoritative")
}

func TestIngest_StopsAtHeader(t *testing.T) {
	// Rows above the header row are preamble and must never be ingested.
	src := writeSource(t,
		"1,A,IRL999999,Approved\n"+
			"Week,Block,Application Number,Decision\n"+
			"1,A,IRL123456,Approved\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)

	_, ok := idx.Lookup("IRL999999")
	assert.False(t, ok)

	_, ok = idx.Lookup("IRL123456")
	assert.True(t, ok)
}

func TestIngest_SkipsBlankAndUnrecognizedRows(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A,,Approved\n"+
			"1,A,IRL111111,\n"+
			"1,A,IRL222222,Withdrawn\n"+
			"1,A,IRL333333,approved\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())

	rec, ok := idx.Lookup("IRL333333")
	require.True(t, ok)
	assert.Equal(t, models.StatusApproved, rec.Status)
}

func TestIngest_NormalizesNumericArtifacts(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A, 123456.0 ,Approved\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)

	rec, ok := idx.Lookup("123456")
	require.True(t, ok)
	assert.Equal(t, "123456", rec.ApplicationNumber)
}

func TestIngest_OptionalDateColumn(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision,Date\n"+
			"1,A,IRL123456,Approved,2023-03-01\n"+
			"1,A,IRL789012,Refused,not-a-date\n")

	idx, err := newTestIngester(t).Ingest(src)
	require.NoError(t, err)

	rec, ok := idx.Lookup("IRL123456")
	require.True(t, ok)
	assert.Equal(t, 2023, rec.ApplicationDate.Year())

	rec, ok = idx.Lookup("IRL789012")
	require.True(t, ok)
	assert.True(t, rec.ApplicationDate.IsZero())
}

func TestIngest_MissingSourceYieldsEmptyIndex(t *testing.T) {
	idx, err := newTestIngester(t).Ingest(filepath.Join(t.TempDir(), "nope.csv"))
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestIngest_UnreadableSourceFails(t *testing.T) {
	src := writeSource(t, "a,b\n\"unterminated\n")

	_, err := newTestIngester(t).Ingest(src)
	assert.Error(t, err)
}

func TestIngest_WrongColumnCountFails(t *testing.T) {
	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A\n")

	_, err := newTestIngester(t).Ingest(src)
	assert.Error(t, err)
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IRL123456", "IRL123456"},
		{"  IRL123456  ", "IRL123456"},
		{"123456.0", "123456"},
		{"123456.00", "123456"},
		{"123456", "123456"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeNumber(tt.in))
	}
}

func TestStore_PublishAndReload(t *testing.T) {
	store := NewStore()
	assert.Equal(t, 0, store.Snapshot().Len())

	src := writeSource(t,
		"Week,Block,Application Number,Decision\n"+
			"1,A,IRL123456,Approved\n")

	require.NoError(t, store.Reload(newTestIngester(t), src))
	assert.Equal(t, 1, store.Snapshot().Len())

	// A failed reload must keep the previous snapshot published.
	bad := writeSource(t, "a,b\n\"unterminated\n")
	assert.Error(t, store.Reload(newTestIngester(t), bad))
	assert.Equal(t, 1, store.Snapshot().Len())
}
